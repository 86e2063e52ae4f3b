package repository

import (
	"context"

	"talentlink/internal/domain/entity"
)

// ConversationRepository is the read boundary against the managed backend.
// ListByUser is an idempotent paged read and is the only call that may be
// retried by the caller.
type ConversationRepository interface {
	// ListByUser returns one page of conversation rows for the user, newest
	// first. A nil cursor starts from the newest page. Every row echoes the
	// page's has_more flag.
	ListByUser(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error)

	// GetByID is the point read used by deep-link hydration.
	GetByID(ctx context.Context, id string) (*entity.ConversationRow, error)
}

// MessageRepository exposes the point reads hydration needs: the newest
// message of a conversation and the count of unread inbound messages.
type MessageRepository interface {
	GetLastMessage(ctx context.Context, conversationID string) (*entity.Message, error)
	CountUnread(ctx context.Context, conversationID, userID string) (int, error)
}
