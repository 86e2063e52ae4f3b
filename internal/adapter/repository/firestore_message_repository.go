package repository

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

// GetLastMessage returns the newest message of the conversation, or nil when
// the conversation has no messages yet.
func (r *firestoreMessageRepository) GetLastMessage(ctx context.Context, conversationID string) (*entity.Message, error) {
	iter := r.client.Collection("conversations").Doc(conversationID).Collection("messages").
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		log.Printf("Firestore error while fetching last message for conversation %s: %v", conversationID, err)
		return nil, errors.Internal("Failed to get last message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

// CountUnread counts messages from the other participant that carry no read
// timestamp.
func (r *firestoreMessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	iter := r.client.Collection("conversations").Doc(conversationID).Collection("messages").
		Where("readAt", "==", nil).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while counting unread messages for conversation %s: %v", conversationID, err)
			return 0, errors.Internal("Failed to count unread messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return 0, errors.Internal("Failed to parse message data", err)
		}
		if message.SenderID != userID {
			count++
		}
	}
	return count, nil
}
