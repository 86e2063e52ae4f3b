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

func syncFixture(convRepo *fakeConversationRepo, userRepo *fakeUserRepo) (*ConversationSyncUseCase, *fakeFeed, *fakeNotifier) {
	if userRepo == nil {
		userRepo = &fakeUserRepo{users: map[string]*entity.User{}}
	}
	feed := &fakeFeed{}
	notifier := &fakeNotifier{}
	s := NewConversationSyncUseCase("u1", convRepo, &fakeMessageRepo{}, userRepo, feed, notifier, SyncConfig{
		PageSize:        2,
		ListCacheTTL:    time.Minute,
		RefreshDebounce: 5 * time.Millisecond,
		RetryAttempts:   1,
		RetryBaseDelay:  time.Millisecond,
	})
	return s, feed, notifier
}

func TestLoadConversationsInstallsAuthoritativeList(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			return []entity.ConversationRow{
				testRow("c1", ts.Add(time.Minute), true),
				testRow("c2", ts, true),
			}, nil
		},
	}
	s, _, notifier := syncFixture(convRepo, nil)

	list, err := s.LoadConversations(context.Background(), false)

	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID)
	assert.True(t, s.HasMore())
	assert.NotEmpty(t, notifier.payloads)
}

func TestLoadConversationsIsCachedUntilForced(t *testing.T) {
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			return nil, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)

	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)
	_, err = s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, 1, convRepo.calls())

	_, err = s.LoadConversations(context.Background(), true)
	assert.NoError(t, err)
	assert.Equal(t, 2, convRepo.calls())
}

func TestLoadConversationsFailureKeepsLastKnownList(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fail := false
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			if fail {
				return nil, errors.New("backend down")
			}
			return []entity.ConversationRow{testRow("c1", ts, false)}, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)

	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)

	fail = true
	_, err = s.LoadConversations(context.Background(), true)

	assert.True(t, apperrors.Is(err, "UNAVAILABLE"))
	assert.Len(t, s.Conversations(), 1)
}

func TestLoadMoreMergesOlderPage(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			if cursor == nil {
				return []entity.ConversationRow{
					testRow("c1", ts.Add(2*time.Minute), true),
					testRow("c2", ts.Add(time.Minute), true),
				}, nil
			}
			assert.Equal(t, "c2", cursor.ConversationID)
			return []entity.ConversationRow{
				testRow("c2", ts.Add(time.Minute), false),
				testRow("c3", ts, false),
			}, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)

	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)

	list, err := s.LoadMore(context.Background())

	assert.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "c1", list[0].ID)
	assert.Equal(t, "c3", list[2].ID)
	assert.False(t, s.HasMore())
}

func TestLoadMorePastEndIsNoOp(t *testing.T) {
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			return nil, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)

	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)
	before := convRepo.calls()

	_, err = s.LoadMore(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, before, convRepo.calls())
}

func TestSetRouteNewTargetRedirectsToExistingConversation(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			return []entity.ConversationRow{testRow("c1", ts, false)}, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)
	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)

	route, err := s.SetRoute(context.Background(), "", "u-c1")

	assert.NoError(t, err)
	assert.Equal(t, RouteState{ConversationID: "c1", Replace: true}, route)
	assert.Equal(t, "c1", s.ActiveID())
}

func TestSetRouteNewTargetInstallsPlaceholder(t *testing.T) {
	convRepo := &fakeConversationRepo{}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"u9": {ID: "u9", DisplayName: "Dana"},
	}}
	s, _, _ := syncFixture(convRepo, userRepo)

	route, err := s.SetRoute(context.Background(), "", "u9")

	assert.NoError(t, err)
	assert.Equal(t, RouteState{NewTarget: "u9"}, route)
	assert.Equal(t, entity.PendingID("u9"), s.ActiveID())
	assert.Equal(t, "u9", s.PendingTarget())
}

func TestSetRouteNewTargetSelfClearsToRoot(t *testing.T) {
	s, _, _ := syncFixture(&fakeConversationRepo{}, nil)

	route, err := s.SetRoute(context.Background(), "", "u1")

	assert.NoError(t, err)
	assert.Equal(t, RouteState{Replace: true}, route)
	assert.Empty(t, s.ActiveID())
}

func TestSetRouteIgnoresPendingShapedDeepLink(t *testing.T) {
	s, _, _ := syncFixture(&fakeConversationRepo{}, nil)

	route, err := s.SetRoute(context.Background(), entity.PendingID("u9"), "")

	assert.NoError(t, err)
	assert.Equal(t, RouteState{Replace: true}, route)
	assert.Empty(t, s.ActiveID())
}

func TestSetRouteHydratesColdDeepLink(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	convRepo := &fakeConversationRepo{
		getFn: func(ctx context.Context, id string) (*entity.ConversationRow, error) {
			return &entity.ConversationRow{ID: "c7", ParticipantA: "u1", ParticipantB: "u2", CreatedAt: ts, UpdatedAt: ts}, nil
		},
	}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"u2": {ID: "u2", DisplayName: "Dana"},
	}}
	s, _, _ := syncFixture(convRepo, userRepo)

	route, err := s.SetRoute(context.Background(), "c7", "")

	assert.NoError(t, err)
	assert.Equal(t, RouteState{ConversationID: "c7"}, route)
	assert.NotNil(t, s.Conversations()[0])
	assert.Equal(t, "c7", s.Conversations()[0].ID)
}

func TestSetRouteForeignDeepLinkRedirectsToRoot(t *testing.T) {
	convRepo := &fakeConversationRepo{
		getFn: func(ctx context.Context, id string) (*entity.ConversationRow, error) {
			return &entity.ConversationRow{ID: "c7", ParticipantA: "u2", ParticipantB: "u3"}, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)

	route, err := s.SetRoute(context.Background(), "c7", "")

	assert.True(t, apperrors.Is(err, "FORBIDDEN"))
	assert.Equal(t, RouteState{Replace: true}, route)
	assert.Empty(t, s.ActiveID())
	assert.Empty(t, s.Conversations())
}

func TestSelectResetsUnreadImmediately(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			row := testRow("c1", ts, false)
			row.UnreadCount = 5
			return []entity.ConversationRow{row}, nil
		},
	}
	s, _, _ := syncFixture(convRepo, nil)
	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)

	route, err := s.Select(context.Background(), "c1")

	assert.NoError(t, err)
	assert.Equal(t, RouteState{ConversationID: "c1"}, route)
	assert.Zero(t, s.Conversations()[0].UnreadCount)
}

func TestSelectUnknownConversation(t *testing.T) {
	s, _, _ := syncFixture(&fakeConversationRepo{}, nil)

	_, err := s.Select(context.Background(), "ghost")

	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestConversationCreatedMigratesPlaceholder(t *testing.T) {
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"u9": {ID: "u9", DisplayName: "Dana"},
	}}
	s, _, _ := syncFixture(&fakeConversationRepo{}, userRepo)

	_, err := s.SetRoute(context.Background(), "", "u9")
	assert.NoError(t, err)
	assert.Equal(t, entity.PendingID("u9"), s.ActiveID())

	now := time.Now()
	route := s.HandleConversationCreated(&entity.Conversation{
		ID:           "c42",
		ParticipantA: "u1",
		ParticipantB: "u9",
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	assert.Equal(t, RouteState{ConversationID: "c42", Replace: true}, route)
	assert.Equal(t, "c42", s.ActiveID())
	assert.Empty(t, s.PendingTarget())
	assert.Nil(t, s.store.Get(entity.PendingID("u9")))
	assert.False(t, s.store.Get("c42").IsPending)
	assert.Equal(t, 1, s.store.Len())
}

func TestAuthoritativeRefreshPreservesUnmatchedPlaceholder(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			return []entity.ConversationRow{testRow("c1", ts, false)}, nil
		},
	}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"u9": {ID: "u9", DisplayName: "Dana"},
	}}
	s, _, _ := syncFixture(convRepo, userRepo)

	_, err := s.SetRoute(context.Background(), "", "u9")
	assert.NoError(t, err)

	_, err = s.LoadConversations(context.Background(), true)
	assert.NoError(t, err)

	assert.NotNil(t, s.store.Get(entity.PendingID("u9")))
	assert.Equal(t, 2, s.store.Len())
}

func TestAuthoritativeRefreshDropsSupersededPlaceholder(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	persisted := false
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			if !persisted {
				return nil, nil
			}
			row := testRow("c9", ts, false)
			row.ParticipantB = "u9"
			return []entity.ConversationRow{row}, nil
		},
	}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"u9": {ID: "u9", DisplayName: "Dana"},
	}}
	s, _, _ := syncFixture(convRepo, userRepo)

	_, err := s.SetRoute(context.Background(), "", "u9")
	assert.NoError(t, err)
	assert.Equal(t, entity.PendingID("u9"), s.ActiveID())

	persisted = true
	_, err = s.LoadConversations(context.Background(), true)
	assert.NoError(t, err)

	assert.Nil(t, s.store.Get(entity.PendingID("u9")))
	assert.Equal(t, "c9", s.ActiveID())
	assert.Equal(t, 1, s.store.Len())
}

func TestMessageEventForUnknownConversationSchedulesRefresh(t *testing.T) {
	s, _, _ := syncFixture(&fakeConversationRepo{}, nil)

	s.HandleMessageEvent(entity.MessageEvent{
		Type:           entity.MessageEventReceived,
		ConversationID: "ghost",
		Message:        &entity.Message{CreatedAt: time.Now()},
	})

	assert.True(t, s.listener.RefreshPending())
}

func TestFailedDebouncedRefreshKeepsOptimisticState(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fail := false
	convRepo := &fakeConversationRepo{
		listFn: func(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
			if fail {
				return nil, errors.New("backend down")
			}
			return []entity.ConversationRow{testRow("c1", ts, false)}, nil
		},
	}
	s, feed, _ := syncFixture(convRepo, nil)
	assert.NoError(t, s.Start(context.Background()))
	defer s.Close()

	_, err := s.LoadConversations(context.Background(), false)
	assert.NoError(t, err)

	// Optimistic patch from the feed, then the authoritative refresh fails.
	fail = true
	bumped := ts.Add(time.Minute)
	feed.Emit(testRow("c1", bumped, false))

	assert.Eventually(t, func() bool {
		return convRepo.calls() > 1
	}, time.Second, 5*time.Millisecond)

	list := s.Conversations()
	assert.Len(t, list, 1)
	assert.Equal(t, bumped, *list[0].LastMessageAt)
}

func TestCloseClearsPendingDebouncedRefresh(t *testing.T) {
	convRepo := &fakeConversationRepo{}
	s, feed, _ := syncFixture(convRepo, nil)
	assert.NoError(t, s.Start(context.Background()))

	feed.Emit(testRow("c1", time.Now(), false))
	s.Close()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, convRepo.calls())
}
