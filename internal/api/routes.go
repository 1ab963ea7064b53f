package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/auth"
	"resumekit/internal/config"
	"resumekit/internal/render"
	"resumekit/internal/storage"
)

// RegisterRoutes registers the versioned API surface.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	renderer *render.Renderer,
) {
	resumeHandler := NewResumeHandler(
		db,
		asynqClient,
		storageClient,
		redisClient,
		renderer,
		cfg.Export.GuardTTL,
		cfg.Export.DownloadTTL,
		cfg.Export.MaxRetry,
	)
	authHandler := NewAuthHandler(db, authService, redisClient, logger)
	wsHandler := NewWsHandler(redisClient, authService, logger, nil)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.GET("/:id/view", resumeHandler.ViewResume)
			resumeGroup.POST("/:id/share", resumeHandler.ShareResume)
			resumeGroup.DELETE("/:id/share", resumeHandler.RevokeShare)
			resumeGroup.POST("/:id/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:id/export/link", resumeHandler.GetExportLink)
		}

		sharedGroup := v1.Group("/shared")
		{
			sharedGroup.GET("/:token", resumeHandler.GetSharedResume)
			sharedGroup.GET("/:token/view", resumeHandler.ViewSharedResume)
		}
	}
}
