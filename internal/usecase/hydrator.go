package usecase

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
)

// ConversationHydrator is the fallback path for deep links: the URL references
// a persisted conversation id that the in-memory list has never seen, so the
// full local state is rebuilt from point reads.
type ConversationHydrator struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	userRepo repository.UserRepository
	store    *ConversationListStore
}

func NewConversationHydrator(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	store *ConversationListStore,
) *ConversationHydrator {
	return &ConversationHydrator{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		store:    store,
	}
}

// Hydrate fetches the conversation row, verifies the current user occupies one
// of its participant slots, then loads the counterpart profile, the newest
// message and the unread count in parallel before installing the assembled
// entity at the front of the list. Any failure returns an error and mutates
// nothing: a partially hydrated conversation must never render, and foreign
// data must never render at all.
func (h *ConversationHydrator) Hydrate(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	row, err := h.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		log.Printf("Hydrator Error: conversation %s lookup failed: %v", conversationID, err)
		return nil, err
	}

	otherID := ""
	switch userID {
	case row.ParticipantA:
		otherID = row.ParticipantB
	case row.ParticipantB:
		otherID = row.ParticipantA
	default:
		log.Printf("Hydrator Error: user %s is not a participant of conversation %s", userID, conversationID)
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	var (
		other       *entity.User
		lastMessage *entity.Message
		unread      int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := h.userRepo.GetByID(gctx, otherID)
		if err != nil {
			return err
		}
		other = u
		return nil
	})
	g.Go(func() error {
		m, err := h.msgRepo.GetLastMessage(gctx, conversationID)
		if err != nil {
			return err
		}
		lastMessage = m
		return nil
	})
	g.Go(func() error {
		n, err := h.msgRepo.CountUnread(gctx, conversationID, userID)
		if err != nil {
			return err
		}
		unread = n
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("Hydrator Error: hydration fetches for conversation %s failed: %v", conversationID, err)
		return nil, err
	}

	conv := Normalize(*row)
	conv.OtherUser = other.Snapshot()
	conv.UnreadCount = unread
	if lastMessage != nil {
		sentAt := lastMessage.CreatedAt
		conv.LastMessage = lastMessage.Snapshot()
		conv.LastMessageAt = &sentAt
	}

	if ctx.Err() != nil {
		// Session torn down mid-flight; drop the late write.
		return nil, ctx.Err()
	}

	h.store.InstallFront(conv)
	return conv, nil
}
