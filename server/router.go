package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpHandler "clipforge/interfaces/http"
	"clipforge/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	healthHandler httpHandler.IHealthHandler,
	jobHandler httpHandler.IJobHandler,
	progressHandler httpHandler.IProgressHandler,
	tiktokOAuthHandler httpHandler.ITikTokOAuthHandler,
	shareHandler httpHandler.IShareHandler,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://clipforge.io", "https://app.clipforge.io", "http://localhost:4200", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", healthHandler.Healthz)

	// OAuth authentication routes
	if tiktokOAuthHandler != nil {
		router.GET("/auth/tiktok", tiktokOAuthHandler.GetAuthURL)
		router.GET("/auth/tiktok/callback", tiktokOAuthHandler.Callback)
		api.GET("/tiktok/status", tiktokOAuthHandler.Status)
		api.DELETE("/tiktok/connection", tiktokOAuthHandler.Disconnect)
	}

	// Workflow engine callback; the engine authenticates out of band, not
	// with a user JWT.
	router.POST("/jobs/:jobId/progress", progressHandler.PublishProgress)

	jobs := api.Group("/jobs")
	{
		jobs.POST("", jobHandler.CreateJob)
		jobs.GET("", jobHandler.ListJobs)
		jobs.GET("/:jobId", jobHandler.GetJob)
		jobs.GET("/:jobId/progress/stream", progressHandler.StreamProgress)
		if shareHandler != nil {
			jobs.POST("/:jobId/share", shareHandler.ShareClip)
		}
	}

	return router
}
