package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/debounce"
)

// RealtimeChangeListener subscribes to the per-user change feed on the
// conversation relation, with one filter per participant slot. Every event
// applies an immediate optimistic patch for rows the store already knows and
// schedules exactly one debounced authoritative refresh, so a burst of events
// collapses into a single refetch regardless of how fast they arrive.
type RealtimeChangeListener struct {
	feed      repository.ConversationFeed
	store     *ConversationListStore
	debouncer *debounce.Debouncer

	mu     sync.Mutex
	unsubs []repository.Unsubscribe
	closed bool
}

func NewRealtimeChangeListener(feed repository.ConversationFeed, store *ConversationListStore, delay time.Duration, refresh func()) *RealtimeChangeListener {
	return &RealtimeChangeListener{
		feed:      feed,
		store:     store,
		debouncer: debounce.New(delay, refresh),
	}
}

// Start opens both slot subscriptions for the user. On any subscription
// failure the ones already opened are torn down again.
func (l *RealtimeChangeListener) Start(ctx context.Context, userID string) error {
	filters := []repository.ParticipantFilter{
		{Slot: repository.SlotA, UserID: userID},
		{Slot: repository.SlotB, UserID: userID},
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, filter := range filters {
		unsub, err := l.feed.Subscribe(ctx, filter, l.handleEvent)
		if err != nil {
			for _, u := range l.unsubs {
				u()
			}
			l.unsubs = nil
			return err
		}
		l.unsubs = append(l.unsubs, unsub)
	}
	return nil
}

// handleEvent is invoked by the feed on every insert/update. Delivery is
// at-least-once, so the patch must be idempotent: re-applying the same row is
// harmless.
func (l *RealtimeChangeListener) handleEvent(row entity.ConversationRow) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	updatedAt := row.UpdatedAt
	if l.store.Patch(row.ID, ConversationPatch{
		LastMessageAt: row.LastMessageAt,
		UpdatedAt:     &updatedAt,
	}) {
		log.Printf("RealtimeListener: patched conversation %s ahead of refresh", row.ID)
	}

	l.debouncer.Trigger()
}

// RequestRefresh schedules the debounced authoritative refresh without an
// optimistic patch, for callers that observed a change outside the feed.
func (l *RealtimeChangeListener) RequestRefresh() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	l.debouncer.Trigger()
}

// RefreshPending reports whether a debounced refresh is scheduled.
func (l *RealtimeChangeListener) RefreshPending() bool {
	return l.debouncer.Pending()
}

// Close tears the subscriptions down and clears any pending refresh timer. A
// timer pending at close time never fires. Safe to call more than once.
func (l *RealtimeChangeListener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	unsubs := l.unsubs
	l.unsubs = nil
	l.mu.Unlock()

	l.debouncer.Cancel()
	for _, u := range unsubs {
		u()
	}
}
