package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadsync/internal/shared/notify"
	"leadsync/internal/shared/utils"
)

type notificationSource interface {
	Recent() []notify.Notification
}

type NotificationHandler struct {
	notifications notificationSource
}

func NewNotificationHandler(notifications notificationSource) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications returns the recent transient notifications, newest
// last.
// GET /api/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	items := h.notifications.Recent()
	if items == nil {
		items = []notify.Notification{}
	}
	utils.SuccessResponse(c, http.StatusOK, "", items)
}
