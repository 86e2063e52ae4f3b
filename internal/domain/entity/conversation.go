package entity

import (
	"strings"
	"time"
)

// PendingIDPrefix marks client-only conversations that have no server row yet.
const PendingIDPrefix = "pending-"

// UserSnapshot is the denormalized profile of the other participant. It is
// optional on a Conversation: a missing snapshot means the counterpart profile
// was deleted or could not be fetched, the conversation itself stays usable.
type UserSnapshot struct {
	ID          string `json:"id" firestore:"id"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	Handle      string `json:"handle,omitempty" firestore:"handle,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	Role        string `json:"role,omitempty" firestore:"role,omitempty"`
}

// MessageSnapshot is the denormalized newest message of a conversation.
type MessageSnapshot struct {
	Content  string    `json:"content" firestore:"content"`
	SentAt   time.Time `json:"sent_at" firestore:"sentAt"`
	SenderID string    `json:"sender_id" firestore:"senderId"`
}

type Conversation struct {
	ID            string           `json:"id" firestore:"id"`
	ParticipantA  string           `json:"participant_a" firestore:"participantA"`
	ParticipantB  string           `json:"participant_b" firestore:"participantB"`
	CreatedAt     time.Time        `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time        `json:"updated_at" firestore:"updatedAt"`
	LastMessageAt *time.Time       `json:"last_message_at,omitempty" firestore:"lastMessageAt,omitempty"`
	OtherUser     *UserSnapshot    `json:"other_user,omitempty" firestore:"otherUser,omitempty"`
	LastMessage   *MessageSnapshot `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount   int              `json:"unread_count" firestore:"unreadCount"`
	IsPending     bool             `json:"is_pending" firestore:"isPending"`
}

// SortKey is lastMessageAt, falling back to createdAt, then updatedAt for rows
// that never carried either.
func (c *Conversation) SortKey() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}

// HasParticipants reports whether the conversation is between exactly the two
// given identities, in either slot order.
func (c *Conversation) HasParticipants(userA, userB string) bool {
	return (c.ParticipantA == userA && c.ParticipantB == userB) ||
		(c.ParticipantA == userB && c.ParticipantB == userA)
}

// OtherParticipantID returns the counterpart of userID, or "" when userID is
// not a participant.
func (c *Conversation) OtherParticipantID(userID string) string {
	switch userID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	}
	return ""
}

// IsPendingID reports whether id has the synthetic not-yet-persisted shape.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, PendingIDPrefix)
}

// PendingID builds the synthetic id for a not-yet-persisted conversation with
// the given target user.
func PendingID(targetUserID string) string {
	return PendingIDPrefix + targetUserID
}

// ConversationRow is the wire shape returned by the conversation list query.
// Every row echoes the page's has_more flag since the boundary has no separate
// count endpoint.
type ConversationRow struct {
	ID            string     `json:"id" firestore:"id"`
	ParticipantA  string     `json:"participant_a" firestore:"participantA"`
	ParticipantB  string     `json:"participant_b" firestore:"participantB"`
	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updatedAt"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" firestore:"lastMessageAt,omitempty"`

	OtherUserID          string `json:"other_user_id,omitempty" firestore:"otherUserId,omitempty"`
	OtherUserDisplayName string `json:"other_user_display_name,omitempty" firestore:"otherUserDisplayName,omitempty"`
	OtherUserHandle      string `json:"other_user_handle,omitempty" firestore:"otherUserHandle,omitempty"`
	OtherUserAvatarURL   string `json:"other_user_avatar_url,omitempty" firestore:"otherUserAvatarURL,omitempty"`
	OtherUserRole        string `json:"other_user_role,omitempty" firestore:"otherUserRole,omitempty"`

	LastMessageContent  string     `json:"last_message_content,omitempty" firestore:"lastMessageContent,omitempty"`
	LastMessageSentAt   *time.Time `json:"last_message_sent_at,omitempty" firestore:"lastMessageSentAt,omitempty"`
	LastMessageSenderID string     `json:"last_message_sender_id,omitempty" firestore:"lastMessageSenderId,omitempty"`

	UnreadCount int  `json:"unread_count" firestore:"unreadCount"`
	HasMore     bool `json:"has_more" firestore:"-"`
}

// SortKey mirrors Conversation.SortKey for raw rows, used to derive the
// pagination cursor from the last row of a page.
func (r ConversationRow) SortKey() time.Time {
	if r.LastMessageAt != nil {
		return *r.LastMessageAt
	}
	if !r.CreatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

// Cursor is the pagination watermark: everything at or before this sort
// position has been fetched. A nil LastMessageAt together with an empty
// ConversationID means "start from the newest page".
type Cursor struct {
	LastMessageAt  *time.Time `json:"last_message_at"`
	ConversationID string     `json:"conversation_id"`
}
