package entity

import "time"

type Message struct {
	ID             string     `json:"id" firestore:"id"`
	ConversationID string     `json:"conversation_id" firestore:"conversationId"`
	SenderID       string     `json:"sender_id" firestore:"senderId"`
	Content        string     `json:"content" firestore:"content"`
	AttachmentURL  string     `json:"attachment_url,omitempty" firestore:"attachmentUrl,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"created_at" firestore:"createdAt"`
}

// MessageEventType tags events handed in by the chat transport layer.
type MessageEventType string

const (
	MessageEventSent     MessageEventType = "sent"
	MessageEventReceived MessageEventType = "received"
	MessageEventRead     MessageEventType = "read"
)

// MessageEvent is the callback payload delivered on local send success, on an
// inbound delivery, or when the active conversation is read.
type MessageEvent struct {
	Type           MessageEventType `json:"type"`
	ConversationID string           `json:"conversation_id"`
	Message        *Message         `json:"message,omitempty"`
}

func (m *Message) Snapshot() *MessageSnapshot {
	if m == nil {
		return nil
	}
	return &MessageSnapshot{
		Content:  m.Content,
		SentAt:   m.CreatedAt,
		SenderID: m.SenderID,
	}
}
