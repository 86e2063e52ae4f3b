package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
)

// conversationDoc is the Firestore shape of a conversation row. Participant
// profiles and the last message are denormalized onto the document by the
// server-side write paths so the list query needs no joins.
type conversationDoc struct {
	ID            string     `firestore:"id"`
	Participants  []string   `firestore:"participants"`
	ParticipantA  string     `firestore:"participantA"`
	ParticipantB  string     `firestore:"participantB"`
	CreatedAt     time.Time  `firestore:"createdAt"`
	UpdatedAt     time.Time  `firestore:"updatedAt"`
	LastMessageAt *time.Time `firestore:"lastMessageAt"`

	LastMessageContent  string     `firestore:"lastMessageContent"`
	LastMessageSentAt   *time.Time `firestore:"lastMessageSentAt"`
	LastMessageSenderID string     `firestore:"lastMessageSenderId"`

	Profiles     map[string]profileDoc `firestore:"profiles"`
	UnreadCounts map[string]int        `firestore:"unreadCounts"`
}

type profileDoc struct {
	DisplayName string `firestore:"displayName"`
	Handle      string `firestore:"handle"`
	AvatarURL   string `firestore:"avatarURL"`
	Role        string `firestore:"role"`
}

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// ListByUser fetches one page ordered newest-first. It reads limit+1 rows to
// derive the has_more flag echoed on every returned row, since there is no
// separate count endpoint.
func (r *firestoreConversationRepository) ListByUser(ctx context.Context, userID string, limit int, cursor *entity.Cursor) ([]entity.ConversationRow, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc).
		OrderBy("id", firestore.Desc)

	if cursor != nil && cursor.LastMessageAt != nil {
		query = query.StartAfter(*cursor.LastMessageAt, cursor.ConversationID)
	}

	iter := query.Limit(limit + 1).Documents(ctx)
	defer iter.Stop()

	var docs []conversationDoc
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while listing conversations for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to list conversations", err)
		}

		var cd conversationDoc
		if err := doc.DataTo(&cd); err != nil {
			log.Printf("Error parsing conversation data for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		docs = append(docs, cd)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	rows := make([]entity.ConversationRow, 0, len(docs))
	for _, cd := range docs {
		rows = append(rows, cd.toRow(userID, hasMore))
	}
	return rows, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.ConversationRow, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var cd conversationDoc
	if err := doc.DataTo(&cd); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	row := cd.toRow("", false)
	return &row, nil
}

// toRow projects the document relative to the querying user: the counterpart
// profile and per-user unread count are selected here. An empty userID (point
// reads) leaves the relative fields blank; hydration fills them from point
// lookups instead.
func (d conversationDoc) toRow(userID string, hasMore bool) entity.ConversationRow {
	row := entity.ConversationRow{
		ID:            d.ID,
		ParticipantA:  d.ParticipantA,
		ParticipantB:  d.ParticipantB,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		LastMessageAt: d.LastMessageAt,

		LastMessageContent:  d.LastMessageContent,
		LastMessageSentAt:   d.LastMessageSentAt,
		LastMessageSenderID: d.LastMessageSenderID,

		HasMore: hasMore,
	}

	if userID != "" {
		otherID := ""
		switch userID {
		case d.ParticipantA:
			otherID = d.ParticipantB
		case d.ParticipantB:
			otherID = d.ParticipantA
		}
		if otherID != "" {
			row.OtherUserID = otherID
			if p, ok := d.Profiles[otherID]; ok {
				row.OtherUserDisplayName = p.DisplayName
				row.OtherUserHandle = p.Handle
				row.OtherUserAvatarURL = p.AvatarURL
				row.OtherUserRole = p.Role
			}
		}
		row.UnreadCount = d.UnreadCounts[userID]
	}

	return row
}
