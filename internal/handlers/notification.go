package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/utils"
)

type NotificationResponse struct {
	ID        uint      `json:"id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotifications returns the caller's own notification records, newest
// first. Any authenticated user may read their own log.
func ListNotifications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	offset, limit := pageParams(ctx)

	var records []models.NotificationRecord

	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	response := make([]NotificationResponse, 0, len(records))
	for _, record := range records {
		response = append(response, NotificationResponse{
			ID:        record.ID,
			Subject:   record.Subject,
			Message:   record.Message,
			CreatedAt: record.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response})
}
