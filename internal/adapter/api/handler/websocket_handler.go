package handler

import (
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "talentlink/internal/infrastructure/websocket"
	"talentlink/internal/usecase"
	"talentlink/pkg/errors"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	sessions  *usecase.SessionManager
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, sessions *usecase.SessionManager) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
		sessions:  sessions,
	}
}

// HandleWebSocket upgrades the connection and subscribes it to the user's
// conversation list update frames. Opening the socket also starts the user's
// sync session so change-feed pushes flow before the first HTTP list call.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	if _, err := h.sessions.Session(c.Request().Context(), userID); err != nil {
		return errors.Internal("Failed to open conversation session", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
