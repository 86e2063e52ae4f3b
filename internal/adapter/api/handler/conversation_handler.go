package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"talentlink/internal/domain/entity"
	"talentlink/internal/infrastructure/ratelimit"
	"talentlink/internal/usecase"
	"talentlink/pkg/errors"
	"talentlink/pkg/response"
)

type ConversationHandler struct {
	sessions    *usecase.SessionManager
	rateLimiter *ratelimit.RateLimiter
}

func NewConversationHandler(sessions *usecase.SessionManager, rateLimiter *ratelimit.RateLimiter) *ConversationHandler {
	return &ConversationHandler{
		sessions:    sessions,
		rateLimiter: rateLimiter,
	}
}

type conversationCreatedRequest struct {
	ID            string     `json:"id" validate:"required"`
	ParticipantA  string     `json:"participant_a" validate:"required"`
	ParticipantB  string     `json:"participant_b" validate:"required"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastMessageAt *time.Time `json:"last_message_at"`

	OtherUserDisplayName string `json:"other_user_display_name"`
	OtherUserHandle      string `json:"other_user_handle"`
	OtherUserAvatarURL   string `json:"other_user_avatar_url"`
	OtherUserRole        string `json:"other_user_role"`

	LastMessageContent  string     `json:"last_message_content"`
	LastMessageSentAt   *time.Time `json:"last_message_sent_at"`
	LastMessageSenderID string     `json:"last_message_sender_id"`
}

type messageEventRequest struct {
	Type           string          `json:"type" validate:"required,oneof=sent received read"`
	ConversationID string          `json:"conversation_id" validate:"required"`
	Message        *entity.Message `json:"message"`
}

type listPayload struct {
	Conversations []*entity.Conversation `json:"conversations"`
	HasMore       bool                   `json:"has_more"`
	ActiveID      string                 `json:"active_id,omitempty"`
	PendingTarget string                 `json:"pending_target,omitempty"`
}

func (h *ConversationHandler) payload(s *usecase.ConversationSyncUseCase) listPayload {
	return listPayload{
		Conversations: s.Conversations(),
		HasMore:       s.HasMore(),
		ActiveID:      s.ActiveID(),
		PendingTarget: s.PendingTarget(),
	}
}

// ListConversations returns the user's ordered conversation list. refresh=true
// bypasses the dedup cache and discards pagination progress.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	force := c.QueryParam("refresh") == "true"
	if force {
		if allowed, wait := h.rateLimiter.Allow(userID, "force_refresh"); !allowed {
			return response.Error(c, errors.TooManyRequests("Refresh limit reached", wait))
		}
	}

	s, err := h.sessions.Session(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open conversation session", err))
	}

	if _, err := s.LoadConversations(c.Request().Context(), force); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, h.payload(s))
}

// LoadMore appends the next older page. Repeated calls while a page is in
// flight, or past the last page, return the current list unchanged.
func (h *ConversationHandler) LoadMore(c echo.Context) error {
	userID := c.Get("uid").(string)

	s, err := h.sessions.Session(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open conversation session", err))
	}

	if _, err := s.LoadMore(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, h.payload(s))
}

// SyncRoute reconciles the client's `conversation` and `new` query parameters
// against the engine and returns the route the client should render.
func (h *ConversationHandler) SyncRoute(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversationID := c.QueryParam("conversation")
	newTarget := c.QueryParam("new")

	if newTarget != "" {
		if allowed, wait := h.rateLimiter.Allow(userID, "start_conversation"); !allowed {
			return response.Error(c, errors.TooManyRequests("Too many new conversations", wait))
		}
	}

	s, err := h.sessions.Session(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open conversation session", err))
	}

	route, routeErr := s.SetRoute(c.Request().Context(), conversationID, newTarget)
	if routeErr != nil {
		// The redirect still applies; the client lands on the root route.
		return response.Error(c, routeErr)
	}

	return response.Success(c, map[string]interface{}{
		"route": route,
		"list":  h.payload(s),
	})
}

// SelectConversation activates a conversation from the list view.
func (h *ConversationHandler) SelectConversation(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	s, err := h.sessions.Session(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open conversation session", err))
	}

	route, err := s.Select(c.Request().Context(), conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"route": route,
		"list":  h.payload(s),
	})
}

// ConversationCreated is the persistence callback from the message-composition
// flow: the first message of a pending conversation was stored and the server
// assigned a real id.
func (h *ConversationHandler) ConversationCreated(c echo.Context) error {
	var req conversationCreatedRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	s, err := h.sessions.Session(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open conversation session", err))
	}

	conv := &entity.Conversation{
		ID:            req.ID,
		ParticipantA:  req.ParticipantA,
		ParticipantB:  req.ParticipantB,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
		LastMessageAt: req.LastMessageAt,
	}
	if conv.OtherParticipantID(userID) == "" {
		return response.Error(c, errors.Forbidden("Not a participant of this conversation", nil))
	}
	if req.OtherUserDisplayName != "" {
		conv.OtherUser = &entity.UserSnapshot{
			ID:          conv.OtherParticipantID(userID),
			DisplayName: req.OtherUserDisplayName,
			Handle:      req.OtherUserHandle,
			AvatarURL:   req.OtherUserAvatarURL,
			Role:        req.OtherUserRole,
		}
	}
	if req.LastMessageSentAt != nil {
		conv.LastMessage = &entity.MessageSnapshot{
			Content:  req.LastMessageContent,
			SentAt:   *req.LastMessageSentAt,
			SenderID: req.LastMessageSenderID,
		}
	}

	route := s.HandleConversationCreated(conv)

	return response.Created(c, map[string]interface{}{
		"route": route,
		"list":  h.payload(s),
	})
}

// MessageEvent consumes send, receive and read callbacks from the chat
// transport.
func (h *ConversationHandler) MessageEvent(c echo.Context) error {
	var req messageEventRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	s, err := h.sessions.Session(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open conversation session", err))
	}

	s.HandleMessageEvent(entity.MessageEvent{
		Type:           entity.MessageEventType(req.Type),
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})

	return response.Success(c, h.payload(s))
}
