package router

import (
	"talentlink/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupConversationRouter(e, authMiddleware)
	SetupHealthRouter(e)
}
