package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus the state of the socket and session.
type HealthHandler struct {
	sessions    sessionProvider
	socketState func() string
}

func NewHealthHandler(sessions sessionProvider, socketState func() string) *HealthHandler {
	return &HealthHandler{
		sessions:    sessions,
		socketState: socketState,
	}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	state := "unknown"
	if h.socketState != nil {
		state = h.socketState()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "leadsync",
		"socket":    state,
		"signed_in": h.sessions != nil && h.sessions.Current() != nil,
	})
}
