// Package common provides shared HTTP handler utilities.
package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadsync/internal/application/syncbus"
	"leadsync/internal/shared/logger"
)

const (
	// SSEKeepaliveInterval is the interval for sending keepalive messages.
	SSEKeepaliveInterval = 30 * time.Second

	// SSEContentType is the content type for SSE responses.
	SSEContentType = "text/event-stream"

	// sseBuffer is how many events a slow reader may lag behind before
	// events are dropped for it.
	sseBuffer = 64
)

// EventStreamHandler streams sync bus events to a client as server-sent
// events, one event per bus notification.
type EventStreamHandler struct {
	bus       *syncbus.Bus
	logger    logger.Interface
	keepAlive time.Duration
}

func NewEventStreamHandler(bus *syncbus.Bus, log logger.Interface) *EventStreamHandler {
	return &EventStreamHandler{
		bus:       bus,
		logger:    log,
		keepAlive: SSEKeepaliveInterval,
	}
}

// SetupSSEResponse sets common SSE response headers.
func SetupSSEResponse(c *gin.Context) {
	c.Header("Content-Type", SSEContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// Stream blocks until the client disconnects.
// GET /api/events
func (h *EventStreamHandler) Stream(c *gin.Context) {
	connID := uuid.New().String()
	events := make(chan []byte, sseBuffer)

	unsubscribe := h.bus.SubscribeAll(func(e syncbus.Event) {
		data, err := syncbus.Marshal(e)
		if err != nil {
			h.logger.Warnw("failed to encode event for stream", "type", e.EventType(), "error", err)
			return
		}
		select {
		case events <- data:
		default:
			h.logger.Warnw("event stream lagging, event dropped", "conn_id", connID, "type", e.EventType())
		}
	})
	defer unsubscribe()

	SetupSSEResponse(c)
	c.Status(http.StatusOK)
	if _, err := c.Writer.WriteString(": connected\n\n"); err != nil {
		h.logger.Warnw("SSE initial write error", "conn_id", connID, "error", err)
		return
	}
	c.Writer.Flush()
	h.logger.Infow("event stream opened", "conn_id", connID)

	keepAliveTicker := time.NewTicker(h.keepAlive)
	defer keepAliveTicker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Infow("event stream closed by client", "conn_id", connID)
			return

		case data := <-events:
			if _, err := c.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
				h.logger.Warnw("event stream write error", "conn_id", connID, "error", err)
				return
			}
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				h.logger.Warnw("event stream keepalive error", "conn_id", connID, "error", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
