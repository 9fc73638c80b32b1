package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/authz"
	"github.com/taskhub-dev/taskhub/internal/handlers"
	"github.com/taskhub-dev/taskhub/internal/middleware"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/roles"
	"github.com/taskhub-dev/taskhub/internal/types"
)

func NewRouter(store *roles.Store) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.RegisterUser)
			auth.POST("/login", handlers.LoginUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		users := api.Group("/users")
		{
			// Project-user creation: identity plus role in one call.
			users.POST("", handlers.CreateProjectUser)
			users.PUT("/:user_id/role",
				middleware.AuthMiddleware(),
				middleware.RequireRole(store, models.RoleAdmin),
				handlers.AssignRole)
		}

		api.GET("/notifications", middleware.AuthMiddleware(), handlers.ListNotifications)

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", middleware.RequireOperation(store, authz.ProjectRead), handlers.ListProjects)
			projects.POST("", middleware.RequireOperation(store, authz.ProjectCreate), handlers.CreateProject)
			projects.PUT("/:project_id", middleware.RequireOperation(store, authz.ProjectUpdate), handlers.UpdateProject)
			projects.DELETE("/:project_id", middleware.RequireOperation(store, authz.ProjectDelete), handlers.DeleteProject)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.GET("", middleware.RequireOperation(store, authz.TaskRead), handlers.ListTasks)
			tasks.POST("", middleware.RequireOperation(store, authz.TaskCreate), handlers.CreateTask)
			tasks.PUT("/:task_id", middleware.RequireOperation(store, authz.TaskUpdate), handlers.UpdateTask)
			tasks.DELETE("/:task_id", middleware.RequireOperation(store, authz.TaskDelete), handlers.DeleteTask)
		}

		milestones := api.Group("/milestones", middleware.AuthMiddleware())
		{
			milestones.GET("", middleware.RequireOperation(store, authz.MilestoneRead), handlers.ListMilestones)
			milestones.POST("", middleware.RequireOperation(store, authz.MilestoneCreate), handlers.CreateMilestone)
			milestones.PUT("/:milestone_id", middleware.RequireOperation(store, authz.MilestoneUpdate), handlers.UpdateMilestone)
			milestones.DELETE("/:milestone_id", middleware.RequireOperation(store, authz.MilestoneDelete), handlers.DeleteMilestone)
		}
	}

	return r
}
