package router

import (
	"github.com/labstack/echo/v4"

	"talentlink/internal/adapter/api/handler"
	"talentlink/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up the conversation list sync routes.
func SetupConversationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	conversationHandler := handler.GetConversationHandler()

	convGroup := e.Group("/v1/conversations")
	convGroup.Use(authMiddleware.Authenticate)

	// List and pagination
	convGroup.GET("", conversationHandler.ListConversations)   // GET /v1/conversations - Current list, ?refresh=true forces a reload
	convGroup.POST("/load-more", conversationHandler.LoadMore) // POST /v1/conversations/load-more - Next older page

	// Selection and URL addressing
	convGroup.GET("/route", conversationHandler.SyncRoute)                // GET /v1/conversations/route?conversation=&new=
	convGroup.POST("/:id/select", conversationHandler.SelectConversation) // POST /v1/conversations/:id/select

	// Callbacks from the chat transport layer
	convGroup.POST("/created", conversationHandler.ConversationCreated) // POST /v1/conversations/created - Conversation persisted
	convGroup.POST("/events", conversationHandler.MessageEvent)         // POST /v1/conversations/events - Message sent/received/read
}
