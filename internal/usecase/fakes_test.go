package usecase

import (
	"context"
	"sync"
	"time"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
)

type fakeConversationRepo struct {
	mu        sync.Mutex
	listFn    func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error)
	getFn     func(ctx context.Context, id string) (*entity.ConversationRow, error)
	listCalls int
}

func (f *fakeConversationRepo) ListByUser(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, userID, limit, cursor)
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.ConversationRow, error) {
	if f.getFn == nil {
		return nil, nil
	}
	return f.getFn(ctx, id)
}

func (f *fakeConversationRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeMessageRepo struct {
	last      *entity.Message
	lastErr   error
	unread    int
	unreadErr error
}

func (f *fakeMessageRepo) GetLastMessage(ctx context.Context, conversationID string) (*entity.Message, error) {
	return f.last, f.lastErr
}

func (f *fakeMessageRepo) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	return f.unread, f.unreadErr
}

type fakeUserRepo struct {
	users map[string]*entity.User
	err   error
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeFeed struct {
	mu       sync.Mutex
	handlers []func(entity.ConversationRow)
	subErr   error
	subs     int
	unsubs   int
}

func (f *fakeFeed) Subscribe(ctx context.Context, filter repository.ParticipantFilter, handler func(entity.ConversationRow)) (repository.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subErr != nil && f.subs > 0 {
		// Fail the second slot subscription when configured.
		return nil, f.subErr
	}
	f.subs++
	f.handlers = append(f.handlers, handler)
	return func() {
		f.mu.Lock()
		f.unsubs++
		f.mu.Unlock()
	}, nil
}

func (f *fakeFeed) Emit(row entity.ConversationRow) {
	f.mu.Lock()
	handlers := make([]func(entity.ConversationRow), len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()

	for _, h := range handlers {
		h(row)
	}
}

func (f *fakeFeed) unsubscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubs
}

type fakeNotifier struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeNotifier) NotifyUser(userID string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
}

func testRow(id string, sortKey time.Time, hasMore bool) entity.ConversationRow {
	return entity.ConversationRow{
		ID:                   id,
		ParticipantA:         "u1",
		ParticipantB:         "u-" + id,
		CreatedAt:            sortKey.Add(-time.Hour),
		UpdatedAt:            sortKey,
		LastMessageAt:        &sortKey,
		OtherUserID:          "u-" + id,
		OtherUserDisplayName: "User " + id,
		HasMore:              hasMore,
	}
}

func testConv(id string, sortKey time.Time) *entity.Conversation {
	lastMessageAt := sortKey
	return &entity.Conversation{
		ID:            id,
		ParticipantA:  "u1",
		ParticipantB:  "u-" + id,
		CreatedAt:     sortKey.Add(-time.Hour),
		UpdatedAt:     sortKey,
		LastMessageAt: &lastMessageAt,
	}
}
