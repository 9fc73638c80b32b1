package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/models"
	"gorm.io/gorm"
)

// dateLayout is the wire format for milestone due dates.
const dateLayout = "2006-01-02"

type CreateMilestoneRequest struct {
	ProjectID uint   `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required,max=100"`
	DueDate   string `json:"due_date" binding:"required"`
}

type UpdateMilestoneRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=100"`
	DueDate *string `json:"due_date"`
}

type MilestoneResponse struct {
	ID        uint   `json:"id"`
	ProjectID uint   `json:"project_id"`
	Name      string `json:"name"`
	DueDate   string `json:"due_date"`
}

func milestoneResponse(milestone models.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:        milestone.ID,
		ProjectID: milestone.ProjectID,
		Name:      milestone.Name,
		DueDate:   milestone.DueDate.Format(dateLayout),
	}
}

func ListMilestones(ctx *gin.Context) {
	offset, limit := pageParams(ctx)

	var milestones []models.Milestone

	if err := db.DB.Offset(offset).Limit(limit).Find(&milestones).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve milestones"})
		return
	}

	response := make([]MilestoneResponse, 0, len(milestones))
	for _, milestone := range milestones {
		response = append(response, milestoneResponse(milestone))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response})
}

func CreateMilestone(ctx *gin.Context) {
	var body CreateMilestoneRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	dueDate, err := time.Parse(dateLayout, body.DueDate)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, body.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	milestone := models.Milestone{
		ProjectID: body.ProjectID,
		Name:      body.Name,
		DueDate:   dueDate,
	}

	if err := db.DB.Create(&milestone).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create milestone"})
		return
	}

	eventSource.MilestoneWritten(milestone.ID, true)

	ctx.JSON(http.StatusCreated, milestoneResponse(milestone))
}

func UpdateMilestone(ctx *gin.Context) {
	var body UpdateMilestoneRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var milestone models.Milestone

	if err := db.DB.First(&milestone, ctx.Param("milestone_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Milestone not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve milestone"})
		}
		return
	}

	if body.Name != nil {
		milestone.Name = *body.Name
	}
	if body.DueDate != nil {
		dueDate, err := time.Parse(dateLayout, *body.DueDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
			return
		}
		milestone.DueDate = dueDate
	}

	if err := db.DB.Save(&milestone).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update milestone"})
		return
	}

	eventSource.MilestoneWritten(milestone.ID, false)

	ctx.JSON(http.StatusOK, milestoneResponse(milestone))
}

func DeleteMilestone(ctx *gin.Context) {
	var milestone models.Milestone

	if err := db.DB.First(&milestone, ctx.Param("milestone_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Milestone not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve milestone"})
		}
		return
	}

	if err := db.DB.Delete(&milestone).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete milestone"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
