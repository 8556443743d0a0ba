package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/gracepoint-chapel/church-backend/internal/config"
	"github.com/gracepoint-chapel/church-backend/internal/handlers"
	"github.com/gracepoint-chapel/church-backend/internal/middleware"
)

// HandlerDependencies carries the wired handlers into the router
type HandlerDependencies struct {
	Auth     *handlers.AuthHandler
	Campaign *handlers.CampaignHandler
	Social   *handlers.SocialHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.Auth.Login)
		}

		// OAuth providers redirect the browser here without a bearer token
		public.GET("/social/accounts/callback/:platform", deps.Social.OAuthCallback)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	protected.Use(middleware.AdminOnlyMiddleware())
	{
		campaigns := protected.Group("/campaigns")
		{
			campaigns.GET("", deps.Campaign.ListCampaigns)
			campaigns.GET("/preview-recipients", deps.Campaign.PreviewRecipients)
			campaigns.GET("/ministries", deps.Campaign.ListMinistries)
			campaigns.GET("/events", deps.Campaign.ListEvents)
			campaigns.GET("/:id", deps.Campaign.GetCampaign)
			campaigns.POST("", deps.Campaign.CreateCampaign)
			campaigns.PUT("/:id", deps.Campaign.UpdateCampaign)
			campaigns.DELETE("/:id", deps.Campaign.DeleteCampaign)
			campaigns.POST("/:id/send", deps.Campaign.SendCampaign)
			campaigns.POST("/:id/cancel", deps.Campaign.CancelCampaign)
		}

		social := protected.Group("/social")
		{
			social.GET("/accounts", deps.Social.ListAccounts)
			social.GET("/accounts/connect/:platform", deps.Social.ConnectAccount)
			social.DELETE("/accounts/:id", deps.Social.DisconnectAccount)

			social.GET("/posts", deps.Social.ListPosts)
			social.GET("/posts/:id", deps.Social.GetPost)
			social.POST("/posts", deps.Social.CreatePost)
			social.PUT("/posts/:id", deps.Social.UpdatePost)
			social.DELETE("/posts/:id", deps.Social.DeletePost)
			social.POST("/posts/:id/schedule", deps.Social.SchedulePost)
			social.POST("/posts/:id/publish", deps.Social.PublishPost)

			social.GET("/calendar", deps.Social.Calendar)
		}
	}

	return router
}
