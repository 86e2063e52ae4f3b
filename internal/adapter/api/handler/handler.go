package handler

import (
	"talentlink/internal/infrastructure/ratelimit"
	"talentlink/internal/usecase"
)

var (
	conversationHandler *ConversationHandler
)

func Setup(
	sessionManager *usecase.SessionManager,
	rateLimiter *ratelimit.RateLimiter,
) {
	conversationHandler = NewConversationHandler(sessionManager, rateLimiter)
}

func GetConversationHandler() *ConversationHandler {
	return conversationHandler
}
