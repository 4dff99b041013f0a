package router

import (
	"time"

	"github.com/bugline-dev/bugline/internal/activity"
	"github.com/bugline-dev/bugline/internal/handlers"
	"github.com/bugline-dev/bugline/internal/middleware"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/bugline-dev/bugline/internal/ws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func New(database *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hub := ws.NewHub()
	recorder := activity.NewRecorder(database)

	authHandler := handlers.NewAuthHandler(database)
	userHandler := handlers.NewUserHandler(database)
	projectHandler := handlers.NewProjectHandler(database)
	issueHandler := handlers.NewIssueHandler(database, recorder, hub)
	commentHandler := handlers.NewCommentHandler(database)
	attachmentHandler := handlers.NewAttachmentHandler(database)
	activityHandler := handlers.NewActivityHandler(database)

	r.Static("/uploads", types.UploadsDir())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), hub.Serve)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", userHandler.List)
			users.GET("/:user_id", userHandler.Get)
			users.PUT("/profile", userHandler.UpdateProfile)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", projectHandler.List)
			projects.POST("", projectHandler.Create)
			projects.GET("/:project_id", projectHandler.Get)
			projects.PUT("/:project_id", projectHandler.Update)
			projects.DELETE("/:project_id", projectHandler.Delete)
			projects.POST("/:project_id/members", projectHandler.AddMember)
		}

		issues := api.Group("/issues", middleware.AuthMiddleware())
		{
			issues.GET("/project/:project_id", issueHandler.List)
			issues.GET("/:issue_id", issueHandler.Get)
			issues.POST("", issueHandler.Create)
			issues.PUT("/:issue_id", issueHandler.Update)
			issues.PUT("/:issue_id/status", issueHandler.UpdateStatus)
			issues.DELETE("/:issue_id", issueHandler.Delete)
		}

		comments := api.Group("/comments", middleware.AuthMiddleware())
		{
			comments.GET("/issue/:issue_id", commentHandler.List)
			comments.POST("", commentHandler.Create)
			comments.PUT("/:comment_id", commentHandler.Update)
			comments.DELETE("/:comment_id", commentHandler.Delete)
		}

		attachments := api.Group("/attachments", middleware.AuthMiddleware())
		{
			attachments.GET("/issue/:issue_id", attachmentHandler.List)
			attachments.POST("", attachmentHandler.Upload)
			attachments.DELETE("/:attachment_id", attachmentHandler.Delete)
		}

		activityRoutes := api.Group("/activity", middleware.AuthMiddleware())
		{
			activityRoutes.GET("/issue/:issue_id", activityHandler.ListByIssue)
			activityRoutes.GET("/project/:project_id", activityHandler.ListByProject)
		}
	}

	return r
}
