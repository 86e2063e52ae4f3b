package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/cache"
	"talentlink/pkg/errors"
	"talentlink/pkg/retry"
)

// RouteState is the URL-visible addressing produced by selection changes. The
// client keeps its query parameters (`conversation`, `new`) in sync with it;
// Replace means history replacement rather than a push.
type RouteState struct {
	ConversationID string `json:"conversation,omitempty"`
	NewTarget      string `json:"new,omitempty"`
	Replace        bool   `json:"replace"`
}

type SyncConfig struct {
	PageSize        int
	ListCacheTTL    time.Duration
	RefreshDebounce time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
}

func (c *SyncConfig) withDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.ListCacheTTL <= 0 {
		c.ListCacheTTL = 5 * time.Second
	}
	if c.RefreshDebounce <= 0 {
		c.RefreshDebounce = 200 * time.Millisecond
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
}

// ConversationSyncUseCase keeps one user's conversation list and active
// selection consistent across paginated loads, optimistic local mutations,
// change-feed pushes and URL-driven selection. It is the convergence point:
// the debounced authoritative refresh it runs is idempotent and corrects any
// drift the optimistic patches introduced.
type ConversationSyncUseCase struct {
	userID string
	cfg    SyncConfig

	store     *ConversationListStore
	paginator *CursorPaginator
	resolver  *PendingConversationResolver
	hydrator  *ConversationHydrator
	listener  *RealtimeChangeListener

	requests *cache.RequestCache
	fetcher  *retry.Fetcher
	convRepo repository.ConversationRepository
	notifier ListNotifier

	mu            sync.Mutex
	activeID      string
	pendingTarget string
	closed        bool
}

func NewConversationSyncUseCase(
	userID string,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	feed repository.ConversationFeed,
	notifier ListNotifier,
	cfg SyncConfig,
) *ConversationSyncUseCase {
	cfg.withDefaults()

	store := NewConversationListStore()
	s := &ConversationSyncUseCase{
		userID:    userID,
		cfg:       cfg,
		store:     store,
		paginator: NewCursorPaginator(),
		resolver:  NewPendingConversationResolver(store, userRepo),
		hydrator:  NewConversationHydrator(convRepo, msgRepo, userRepo, store),
		requests:  cache.NewRequestCache(),
		fetcher:   retry.NewFetcher(cfg.RetryAttempts, cfg.RetryBaseDelay),
		convRepo:  convRepo,
		notifier:  notifier,
	}
	s.listener = NewRealtimeChangeListener(feed, store, cfg.RefreshDebounce, s.refreshFromFeed)
	return s
}

// Start opens the change-feed subscriptions. Safe to skip in tests that drive
// events by hand.
func (s *ConversationSyncUseCase) Start(ctx context.Context) error {
	return s.listener.Start(ctx, s.userID)
}

// Close tears the session down. A debounced refresh pending at close time is
// cleared, never fired, and any in-flight async flow suppresses its late
// writes.
func (s *ConversationSyncUseCase) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.listener.Close()
}

func (s *ConversationSyncUseCase) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LoadConversations fetches the authoritative root page through the dedup
// cache and the retry wrapper. force invalidates the cache and discards
// pagination progress first. On exhaustion of the retry budget the store keeps
// its last-known list and the caller gets a retryable error.
func (s *ConversationSyncUseCase) LoadConversations(ctx context.Context, force bool) ([]*entity.Conversation, error) {
	key := s.listKey()
	if force {
		s.requests.Invalidate(key)
		s.paginator.Reset()
	}

	value, err := s.requests.Dedupe(ctx, key, s.cfg.ListCacheTTL, func(ctx context.Context) (interface{}, error) {
		var rows []entity.ConversationRow
		err := s.fetcher.Do(ctx, func(ctx context.Context) error {
			page, err := s.convRepo.ListByUser(ctx, s.userID, s.cfg.PageSize, nil)
			if err != nil {
				return err
			}
			rows = page
			return nil
		})
		if err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		log.Printf("ConversationSync Error: root page load for user %s failed after retries: %v", s.userID, err)
		return nil, errors.Unavailable("Failed to load conversations", err)
	}

	rows := value.([]entity.ConversationRow)
	if s.isClosed() {
		return s.store.Snapshot(), nil
	}

	s.applyAuthoritative(rows)
	s.paginator.Reset()
	s.paginator.Advance(rows)
	s.notifyListUpdate()
	return s.store.Snapshot(), nil
}

// LoadMore appends the next older page. It is a no-op while a load is in
// flight or when the server reported no further pages.
func (s *ConversationSyncUseCase) LoadMore(ctx context.Context) ([]*entity.Conversation, error) {
	if !s.paginator.BeginLoad() {
		return s.store.Snapshot(), nil
	}
	defer s.paginator.EndLoad()

	cursor := s.paginator.Cursor()
	value, err := s.requests.Dedupe(ctx, s.moreKey(cursor), s.cfg.ListCacheTTL, func(ctx context.Context) (interface{}, error) {
		var rows []entity.ConversationRow
		err := s.fetcher.Do(ctx, func(ctx context.Context) error {
			page, err := s.convRepo.ListByUser(ctx, s.userID, s.cfg.PageSize, cursor)
			if err != nil {
				return err
			}
			rows = page
			return nil
		})
		if err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		log.Printf("ConversationSync Error: load-more for user %s failed: %v", s.userID, err)
		return nil, errors.Unavailable("Failed to load more conversations", err)
	}

	rows := value.([]entity.ConversationRow)
	if s.isClosed() {
		return s.store.Snapshot(), nil
	}

	s.store.MergeAppend(NormalizePage(rows))
	s.paginator.Advance(rows)
	s.notifyListUpdate()
	return s.store.Snapshot(), nil
}

// SetRoute is the URL-to-state direction of the addressing contract: the
// client reports its `conversation` and `new` query parameters and receives
// the route it should actually be on. A hydration failure returns an error
// alongside a root redirect so nothing foreign or partial ever renders.
func (s *ConversationSyncUseCase) SetRoute(ctx context.Context, conversationID, newTarget string) (RouteState, error) {
	if newTarget != "" {
		return s.resolveNewIntent(ctx, newTarget)
	}

	if conversationID == "" {
		s.clearSelection()
		return RouteState{}, nil
	}

	if entity.IsPendingID(conversationID) {
		// Placeholder ids are addressed through the `new` parameter only; a
		// deep link carrying one is malformed.
		log.Printf("ConversationSync: ignoring pending-shaped deep link %s", conversationID)
		s.clearSelection()
		return RouteState{Replace: true}, nil
	}

	if conv := s.store.Get(conversationID); conv != nil {
		s.selectConversation(conv.ID)
		return RouteState{ConversationID: conv.ID}, nil
	}

	conv, err := s.hydrator.Hydrate(ctx, s.userID, conversationID)
	if err != nil {
		s.clearSelection()
		return RouteState{Replace: true}, err
	}
	if s.isClosed() {
		return RouteState{}, nil
	}

	s.selectConversation(conv.ID)
	s.notifyListUpdate()
	return RouteState{ConversationID: conv.ID}, nil
}

func (s *ConversationSyncUseCase) resolveNewIntent(ctx context.Context, newTarget string) (RouteState, error) {
	res := s.resolver.Resolve(ctx, s.userID, newTarget)
	switch res.Outcome {
	case PendingExisting:
		s.selectConversation(res.RedirectID)
		return RouteState{ConversationID: res.RedirectID, Replace: true}, nil

	case PendingCreated:
		if s.isClosed() {
			return RouteState{}, nil
		}
		s.mu.Lock()
		s.activeID = res.Pending.ID
		s.pendingTarget = newTarget
		s.mu.Unlock()
		s.notifyListUpdate()
		return RouteState{NewTarget: newTarget}, nil

	default: // PendingRejected, PendingCleared
		s.clearSelection()
		return RouteState{Replace: true}, nil
	}
}

// Select is the state-to-URL direction: a user-driven selection inside the
// list view. The unread count resets locally the instant the conversation
// becomes active, independent of server acknowledgment latency.
func (s *ConversationSyncUseCase) Select(ctx context.Context, id string) (RouteState, error) {
	conv := s.store.Get(id)
	if conv == nil {
		return RouteState{}, errors.NotFound("Conversation", nil)
	}

	s.selectConversation(id)
	s.notifyListUpdate()

	if conv.IsPending {
		return RouteState{NewTarget: conv.OtherParticipantID(s.userID)}, nil
	}
	return RouteState{ConversationID: id}, nil
}

// HandleConversationCreated is invoked by the message-composition flow once
// the server has persisted a brand-new conversation. The pending placeholder
// for the pair is removed, the real entity installed at the front, and all
// local references migrate to the persisted id. The placeholder id is never
// reused.
func (s *ConversationSyncUseCase) HandleConversationCreated(conv *entity.Conversation) RouteState {
	otherID := conv.OtherParticipantID(s.userID)
	pendingID := entity.PendingID(otherID)

	conv.IsPending = false
	s.store.Remove(pendingID)
	if stale := s.store.FindByParticipants(s.userID, otherID); stale != nil && stale.ID != conv.ID {
		s.store.Remove(stale.ID)
	}
	s.store.InstallFront(conv)

	s.mu.Lock()
	if s.activeID == pendingID || s.pendingTarget == otherID {
		s.activeID = conv.ID
		s.pendingTarget = ""
	}
	s.mu.Unlock()

	s.notifyListUpdate()
	return RouteState{ConversationID: conv.ID, Replace: true}
}

// HandleMessageEvent consumes send/receive/read callbacks from the chat
// transport layer. Events for conversations the list has never seen fall back
// to the debounced authoritative refresh instead of being dropped.
func (s *ConversationSyncUseCase) HandleMessageEvent(evt entity.MessageEvent) {
	switch evt.Type {
	case entity.MessageEventRead:
		s.store.MarkRead(evt.ConversationID)

	case entity.MessageEventSent, entity.MessageEventReceived:
		if !s.store.UpsertFromEvent(evt, s.ActiveID()) {
			log.Printf("ConversationSync: message event for unknown conversation %s, scheduling refresh", evt.ConversationID)
			s.listener.RequestRefresh()
			return
		}

	default:
		log.Printf("ConversationSync: dropping message event with unknown type %q", evt.Type)
		return
	}

	s.notifyListUpdate()
}

// Conversations returns the current ordering.
func (s *ConversationSyncUseCase) Conversations() []*entity.Conversation {
	return s.store.Snapshot()
}

func (s *ConversationSyncUseCase) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *ConversationSyncUseCase) PendingTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingTarget
}

func (s *ConversationSyncUseCase) HasMore() bool {
	return s.paginator.HasMore()
}

// refreshFromFeed is the debounced convergence point behind realtime events.
// When it fails the optimistic patches stay as the freshest known state until
// the next event schedules another attempt; that is a deliberate choice, the
// store must never be cleared on a failed refresh.
func (s *ConversationSyncUseCase) refreshFromFeed() {
	if s.isClosed() {
		return
	}
	if _, err := s.LoadConversations(context.Background(), true); err != nil {
		log.Printf("ConversationSync: authoritative refresh failed, keeping optimistic state: %v", err)
	}
}

// applyAuthoritative replaces the list with server truth while carrying over
// pending placeholders whose pair the server still has no row for. A
// placeholder whose pair did come back persisted is superseded and its
// selection migrates to the real id.
func (s *ConversationSyncUseCase) applyAuthoritative(rows []entity.ConversationRow) {
	var pendings []*entity.Conversation
	for _, c := range s.store.Snapshot() {
		if c.IsPending {
			pendings = append(pendings, c)
		}
	}

	s.store.ReplaceAll(NormalizePage(rows))

	for _, pending := range pendings {
		otherID := pending.OtherParticipantID(s.userID)
		if real := s.store.FindByParticipants(s.userID, otherID); real != nil {
			s.mu.Lock()
			if s.activeID == pending.ID {
				s.activeID = real.ID
				s.pendingTarget = ""
			}
			s.mu.Unlock()
			continue
		}
		s.store.InstallFront(pending)
	}
}

func (s *ConversationSyncUseCase) selectConversation(id string) {
	s.mu.Lock()
	s.activeID = id
	s.pendingTarget = ""
	s.mu.Unlock()

	s.store.MarkRead(id)
}

func (s *ConversationSyncUseCase) clearSelection() {
	s.mu.Lock()
	s.activeID = ""
	s.pendingTarget = ""
	s.mu.Unlock()
}

func (s *ConversationSyncUseCase) notifyListUpdate() {
	if s.notifier == nil {
		return
	}

	unreadTotal := 0
	for _, c := range s.store.Snapshot() {
		unreadTotal += c.UnreadCount
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"type":         "conversation_list_update",
		"count":        s.store.Len(),
		"unread_total": unreadTotal,
	})
	s.notifier.NotifyUser(s.userID, payload)
}

func (s *ConversationSyncUseCase) listKey() string {
	return fmt.Sprintf("conversations:%s", s.userID)
}

func (s *ConversationSyncUseCase) moreKey(cursor *entity.Cursor) string {
	if cursor == nil {
		return s.listKey()
	}
	return fmt.Sprintf("conversations:%s:after:%s", s.userID, cursor.ConversationID)
}
