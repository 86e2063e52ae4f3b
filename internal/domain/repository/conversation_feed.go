package repository

import (
	"context"

	"talentlink/internal/domain/entity"
)

// ParticipantSlot selects which slot of the conversation relation a feed
// filter matches on.
type ParticipantSlot string

const (
	SlotA ParticipantSlot = "participantA"
	SlotB ParticipantSlot = "participantB"
)

// ParticipantFilter scopes a change feed subscription to rows where the given
// user occupies the given slot.
type ParticipantFilter struct {
	Slot   ParticipantSlot
	UserID string
}

// Unsubscribe tears down one feed subscription. Safe to call more than once.
type Unsubscribe func()

// ConversationFeed is the per-user change feed over the conversation relation.
// Delivery is at-least-once; handlers must tolerate duplicates. The full
// updated row is delivered on every insert/update event.
type ConversationFeed interface {
	Subscribe(ctx context.Context, filter ParticipantFilter, handler func(entity.ConversationRow)) (Unsubscribe, error)
}
