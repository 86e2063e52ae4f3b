package handler

import (
	"net/http"
	"time"

	"talentlink/internal/infrastructure/firebase"
	ws "talentlink/internal/infrastructure/websocket"
	"talentlink/internal/usecase"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	firebaseAuth *firebase.FirebaseAuthClient
	wsManager    *ws.Manager
	sessions     *usecase.SessionManager
}

var healthHandler *HealthHandler

func NewHealthHandler(firebaseAuth *firebase.FirebaseAuthClient, wsManager *ws.Manager, sessions *usecase.SessionManager) *HealthHandler {
	return &HealthHandler{
		firebaseAuth: firebaseAuth,
		wsManager:    wsManager,
		sessions:     sessions,
	}
}

func SetupHealthHandler(firebaseAuth *firebase.FirebaseAuthClient, wsManager *ws.Manager, sessions *usecase.SessionManager) {
	healthHandler = NewHealthHandler(firebaseAuth, wsManager, sessions)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "Server is running",
		"time":             time.Now().Format(time.RFC3339),
		"active_sessions":  h.sessions.ActiveSessions(),
		"connected_users":  h.wsManager.ConnectedUsers(),
	})
}

func (h *HealthHandler) CheckFirebaseHealth(c echo.Context) error {
	err := h.firebaseAuth.TestConnection(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firebase Auth connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firebase Auth connected successfully",
	})
}
