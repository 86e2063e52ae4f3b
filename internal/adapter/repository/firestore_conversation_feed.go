package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
	"talentlink/pkg/logger"
)

type firestoreConversationFeed struct {
	client *firestore.Client
}

// NewFirestoreConversationFeed exposes Firestore snapshot listeners as the
// per-user conversation change feed. Delivery is at-least-once: the initial
// snapshot replays existing rows as Added changes, and reconnects may replay
// rows already seen. Consumers patch idempotently, so that is harmless.
func NewFirestoreConversationFeed(client *firestore.Client) repository.ConversationFeed {
	return &firestoreConversationFeed{
		client: client,
	}
}

func (f *firestoreConversationFeed) Subscribe(ctx context.Context, filter repository.ParticipantFilter, handler func(entity.ConversationRow)) (repository.Unsubscribe, error) {
	if filter.UserID == "" {
		return nil, errors.BadRequest("Feed filter requires a user id", nil)
	}

	subCtx, cancel := context.WithCancel(ctx)
	snapshots := f.client.Collection("conversations").
		Where(string(filter.Slot), "==", filter.UserID).
		Snapshots(subCtx)

	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if subCtx.Err() == nil {
					logger.Warn("ConversationFeed: snapshot stream for %s=%s ended: %v", filter.Slot, filter.UserID, err)
				}
				return
			}

			for _, change := range snap.Changes {
				if change.Kind == firestore.DocumentRemoved {
					continue
				}

				var cd conversationDoc
				if err := change.Doc.DataTo(&cd); err != nil {
					logger.Error("ConversationFeed: failed to parse change for %s=%s: %v", filter.Slot, filter.UserID, err)
					continue
				}
				handler(cd.toRow(filter.UserID, false))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}
