package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/db"
	"github.com/taskhub-dev/taskhub/internal/models"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	ProjectID   uint   `json:"project_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=200"`
	AssignedTo  *uint  `json:"assigned_to"`
}

type UpdateTaskRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=200"`
	AssignedTo  *uint   `json:"assigned_to"`
}

type TaskResponse struct {
	ID          uint   `json:"id"`
	ProjectID   uint   `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AssignedTo  *uint  `json:"assigned_to"`
}

func taskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Name:        task.Name,
		Description: task.Description,
		AssignedTo:  task.AssignedToID,
	}
}

func ListTasks(ctx *gin.Context) {
	offset, limit := pageParams(ctx)

	var tasks []models.Task

	if err := db.DB.Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response})
}

func CreateTask(ctx *gin.Context) {
	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
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

	if body.AssignedTo != nil {
		var assignee models.User
		if err := db.DB.First(&assignee, *body.AssignedTo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Assigned user not found"})
			} else {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}
	}

	task := models.Task{
		ProjectID:    body.ProjectID,
		Name:         body.Name,
		Description:  body.Description,
		AssignedToID: body.AssignedTo,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	// Fire the change event only after the write is durable.
	eventSource.TaskWritten(task.ID, true)

	ctx.JSON(http.StatusCreated, taskResponse(task))
}

func UpdateTask(ctx *gin.Context) {
	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var task models.Task

	if err := db.DB.First(&task, ctx.Param("task_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if body.Name != nil {
		task.Name = *body.Name
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	if body.AssignedTo != nil {
		var assignee models.User
		if err := db.DB.First(&assignee, *body.AssignedTo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Assigned user not found"})
			} else {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}
		task.AssignedToID = body.AssignedTo
	}

	if err := db.DB.Save(&task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	eventSource.TaskWritten(task.ID, false)

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func DeleteTask(ctx *gin.Context) {
	var task models.Task

	if err := db.DB.First(&task, ctx.Param("task_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	// Deletions never emit notification events.
	if err := db.DB.Delete(&task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
