package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/middleware"
	"jobbridge_backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.notificationService.ListForUser(middleware.UserID(c), unreadOnly, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if err := h.notificationService.MarkAsRead(middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	affected, err := h.notificationService.MarkAllAsRead(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": affected})
}
