package usecase

import (
	"talentlink/internal/domain/entity"
)

// Normalize maps a raw list-query row into the domain Conversation. It is a
// pure translation: no I/O, no defaults beyond what the row carries. The
// other-participant snapshot is produced only when the row has a display name;
// an empty name means the counterpart profile was deleted or is unavailable,
// and the conversation stays usable without it.
func Normalize(row entity.ConversationRow) *entity.Conversation {
	conv := &entity.Conversation{
		ID:            row.ID,
		ParticipantA:  row.ParticipantA,
		ParticipantB:  row.ParticipantB,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		LastMessageAt: row.LastMessageAt,
		UnreadCount:   row.UnreadCount,
	}

	if row.OtherUserDisplayName != "" {
		conv.OtherUser = &entity.UserSnapshot{
			ID:          row.OtherUserID,
			DisplayName: row.OtherUserDisplayName,
			Handle:      row.OtherUserHandle,
			AvatarURL:   row.OtherUserAvatarURL,
			Role:        row.OtherUserRole,
		}
	}

	if row.LastMessageSentAt != nil {
		conv.LastMessage = &entity.MessageSnapshot{
			Content:  row.LastMessageContent,
			SentAt:   *row.LastMessageSentAt,
			SenderID: row.LastMessageSenderID,
		}
	}

	return conv
}

// NormalizePage maps a full page of rows.
func NormalizePage(rows []entity.ConversationRow) []*entity.Conversation {
	conversations := make([]*entity.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, Normalize(row))
	}
	return conversations
}
