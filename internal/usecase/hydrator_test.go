package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"talentlink/internal/domain/entity"
	apperrors "talentlink/pkg/errors"
)

func hydratorFixture(row *entity.ConversationRow) (*ConversationHydrator, *ConversationListStore, *fakeMessageRepo, *fakeUserRepo) {
	convRepo := &fakeConversationRepo{
		getFn: func(ctx context.Context, id string) (*entity.ConversationRow, error) {
			if row != nil && row.ID == id {
				return row, nil
			}
			return nil, apperrors.NotFound("Conversation", nil)
		},
	}
	msgRepo := &fakeMessageRepo{}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"u2": {ID: "u2", DisplayName: "Dana", Role: "coach"},
	}}
	store := NewConversationListStore()
	return NewConversationHydrator(convRepo, msgRepo, userRepo, store), store, msgRepo, userRepo
}

func TestHydrateInstallsAssembledConversation(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	row := &entity.ConversationRow{
		ID:           "c1",
		ParticipantA: "u1",
		ParticipantB: "u2",
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	h, store, msgRepo, _ := hydratorFixture(row)
	sentAt := ts.Add(time.Minute)
	msgRepo.last = &entity.Message{ID: "m1", SenderID: "u2", Content: "hi", CreatedAt: sentAt}
	msgRepo.unread = 3

	conv, err := h.Hydrate(context.Background(), "u1", "c1")

	assert.NoError(t, err)
	assert.Equal(t, "Dana", conv.OtherUser.DisplayName)
	assert.Equal(t, 3, conv.UnreadCount)
	assert.Equal(t, "hi", conv.LastMessage.Content)
	assert.Equal(t, sentAt, *conv.LastMessageAt)
	assert.Same(t, conv, store.Get("c1"))
}

func TestHydrateRejectsNonParticipant(t *testing.T) {
	row := &entity.ConversationRow{ID: "c1", ParticipantA: "u2", ParticipantB: "u3"}
	h, store, _, _ := hydratorFixture(row)

	conv, err := h.Hydrate(context.Background(), "u1", "c1")

	assert.Nil(t, conv)
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
	assert.Zero(t, store.Len())
}

func TestHydrateUnknownConversation(t *testing.T) {
	h, store, _, _ := hydratorFixture(nil)

	conv, err := h.Hydrate(context.Background(), "u1", "ghost")

	assert.Nil(t, conv)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
	assert.Zero(t, store.Len())
}

func TestHydrateFailedPointReadMutatesNothing(t *testing.T) {
	row := &entity.ConversationRow{ID: "c1", ParticipantA: "u1", ParticipantB: "u2"}
	h, store, msgRepo, _ := hydratorFixture(row)
	msgRepo.lastErr = errors.New("backend down")

	conv, err := h.Hydrate(context.Background(), "u1", "c1")

	assert.Nil(t, conv)
	assert.Error(t, err)
	assert.Zero(t, store.Len())
}

func TestHydrateWithoutMessagesLeavesLastMessageEmpty(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	row := &entity.ConversationRow{ID: "c1", ParticipantA: "u1", ParticipantB: "u2", CreatedAt: ts, UpdatedAt: ts}
	h, _, _, _ := hydratorFixture(row)

	conv, err := h.Hydrate(context.Background(), "u1", "c1")

	assert.NoError(t, err)
	assert.Nil(t, conv.LastMessage)
	assert.Nil(t, conv.LastMessageAt)
	assert.Equal(t, ts, conv.SortKey())
}
