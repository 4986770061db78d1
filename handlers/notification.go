package handlers

import (
	"net/http"

	"patisserie-backend/models"
	"patisserie-backend/utils"
	"patisserie-backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

// GetNotifications lists the caller's notifications plus broadcasts.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var notifications []models.Notification
	if err := h.DB.Where("user_id = ? OR user_id IS NULL", userID).
		Order("created_at desc").Limit(100).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// CreateNotification creates a notification and, when the target user
// has a live connection, pushes it immediately.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req struct {
		UserID *string `json:"user_id"` // nil means broadcast
		Title  string  `json:"title" binding:"required"`
		Body   string  `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	notification := models.Notification{
		ID:    uuid.New(),
		Title: req.Title,
		Body:  req.Body,
	}
	if req.UserID != nil {
		uid, err := uuid.Parse(*req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
			return
		}
		notification.UserID = &uid
	}

	if err := h.DB.Create(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if h.Hub != nil {
		if notification.UserID != nil {
			h.Hub.SendToUser(notification.UserID.String(), "notification", notification)
		} else {
			h.Hub.Broadcast("notification", notification)
		}
	}

	c.JSON(http.StatusCreated, notification)
}

func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
