package router

import (
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"talentlink/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the push channel for list update frames.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authClient *auth.Client) {
	// Browsers cannot set headers on websocket upgrades, so the token may
	// arrive as a query parameter instead.
	e.GET("/ws", wsHandler.HandleWebSocket, VerifyToken(authClient))
}
