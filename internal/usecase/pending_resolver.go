package usecase

import (
	"context"
	"log"
	"time"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
)

// PendingOutcome classifies how a "start conversation with user X" intent was
// resolved.
type PendingOutcome int

const (
	// PendingRejected: the target was the current user; the intent is dropped.
	PendingRejected PendingOutcome = iota
	// PendingExisting: a persisted conversation for the pair already exists;
	// selection should redirect to its real id, replacing history.
	PendingExisting
	// PendingCreated: a synthetic placeholder was installed and selected.
	PendingCreated
	// PendingCleared: the target profile could not be fetched; no placeholder,
	// no partial state.
	PendingCleared
)

type PendingResolution struct {
	Outcome    PendingOutcome
	RedirectID string
	Pending    *entity.Conversation
}

// PendingConversationResolver reconciles a start-conversation intent against
// the authoritative list, producing either a pointer to an existing
// conversation or a client-only placeholder that the chat view can render
// before the first message persists anything.
type PendingConversationResolver struct {
	store    *ConversationListStore
	userRepo repository.UserRepository
}

func NewPendingConversationResolver(store *ConversationListStore, userRepo repository.UserRepository) *PendingConversationResolver {
	return &PendingConversationResolver{
		store:    store,
		userRepo: userRepo,
	}
}

// Resolve evaluates the intent for targetUserID. Self-targeting is rejected
// and logged, never surfaced as a user error: a malformed link must not toast.
func (r *PendingConversationResolver) Resolve(ctx context.Context, currentUserID, targetUserID string) PendingResolution {
	if targetUserID == currentUserID {
		log.Printf("PendingResolver: user %s attempted to start a conversation with themselves, clearing intent", currentUserID)
		return PendingResolution{Outcome: PendingRejected}
	}

	if existing := r.store.FindByParticipants(currentUserID, targetUserID); existing != nil {
		if existing.IsPending {
			// The placeholder for this pair is already installed; reselect it.
			return PendingResolution{Outcome: PendingCreated, Pending: existing}
		}
		return PendingResolution{Outcome: PendingExisting, RedirectID: existing.ID}
	}

	target, err := r.userRepo.GetByID(ctx, targetUserID)
	if err != nil || target == nil {
		// A failed lookup must never produce a conversation with a missing
		// counterpart. Fail closed and quietly.
		log.Printf("PendingResolver: profile lookup for %s failed, clearing intent: %v", targetUserID, err)
		return PendingResolution{Outcome: PendingCleared}
	}

	if ctx.Err() != nil {
		// The session was torn down while the lookup was in flight; suppress
		// the late write.
		return PendingResolution{Outcome: PendingCleared}
	}

	now := time.Now()
	pending := &entity.Conversation{
		ID:           entity.PendingID(targetUserID),
		ParticipantA: currentUserID,
		ParticipantB: targetUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
		OtherUser:    target.Snapshot(),
		UnreadCount:  0,
		IsPending:    true,
	}
	r.store.InstallFront(pending)

	return PendingResolution{Outcome: PendingCreated, Pending: pending}
}
