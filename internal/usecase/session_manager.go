package usecase

import (
	"context"
	"sync"

	"talentlink/internal/domain/repository"
	"talentlink/pkg/logger"
)

// SessionManager owns one ConversationSyncUseCase per authenticated user.
// Sessions are created lazily on the first request that needs one and keep
// their change-feed subscriptions open until CloseAll or an explicit Evict.
type SessionManager struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	userRepo repository.UserRepository
	feed     repository.ConversationFeed
	notifier ListNotifier
	cfg      SyncConfig

	mu       sync.Mutex
	sessions map[string]*ConversationSyncUseCase
	cancels  map[string]context.CancelFunc
	closed   bool
}

func NewSessionManager(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	feed repository.ConversationFeed,
	notifier ListNotifier,
	cfg SyncConfig,
) *SessionManager {
	return &SessionManager{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		feed:     feed,
		notifier: notifier,
		cfg:      cfg,
		sessions: make(map[string]*ConversationSyncUseCase),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Session returns the user's sync engine, starting one if none exists yet.
func (m *SessionManager) Session(ctx context.Context, userID string) (*ConversationSyncUseCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, context.Canceled
	}
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	s := NewConversationSyncUseCase(userID, m.convRepo, m.msgRepo, m.userRepo, m.feed, m.notifier, m.cfg)

	// The subscription outlives the request that created it.
	feedCtx, cancel := context.WithCancel(context.Background())
	if err := s.Start(feedCtx); err != nil {
		cancel()
		s.Close()
		return nil, err
	}

	m.sessions[userID] = s
	m.cancels[userID] = cancel
	logger.Info("SessionManager: started conversation session for user %s", userID)
	return s, nil
}

// Evict tears down one user's session, if any.
func (m *SessionManager) Evict(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	cancel := m.cancels[userID]
	delete(m.sessions, userID)
	delete(m.cancels, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	if cancel != nil {
		cancel()
	}
	logger.Info("SessionManager: evicted conversation session for user %s", userID)
}

// ActiveSessions returns how many users currently hold a live session.
func (m *SessionManager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll tears down every session. Used on server shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	cancels := m.cancels
	m.sessions = make(map[string]*ConversationSyncUseCase)
	m.cancels = make(map[string]context.CancelFunc)
	m.closed = true
	m.mu.Unlock()

	for userID, s := range sessions {
		s.Close()
		if cancel := cancels[userID]; cancel != nil {
			cancel()
		}
	}
}
