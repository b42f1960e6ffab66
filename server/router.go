package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"speakcraft-social/infrastructure/realtime"
	httpHandler "speakcraft-social/interfaces/http"
	"speakcraft-social/interfaces/middleware"
)

func InitiateRouter(
	socialAuthHandler httpHandler.ISocialAuthHandler,
	publishHandler httpHandler.IPublishHandler,
	socialHandler httpHandler.ISocialHandler,
	publishHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://app.speakcraft.io", "https://admin.speakcraft.io", "http://localhost:4200", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// The connect flow is driven by browser redirects and the provider's
	// server, so both legs stay outside the bearer-token middleware. The
	// worker trigger is called by the platform scheduler the same way.
	router.GET("/oauth/start", socialAuthHandler.Start)
	router.GET("/oauth/callback", socialAuthHandler.Callback)
	router.POST("/publish/run", publishHandler.Run)

	router.POST("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth())

	social := api.Group("/social")
	{
		social.GET("/accounts", socialHandler.ListAccounts)
		social.POST("/posts", socialHandler.CreatePost)
		social.GET("/posts", socialHandler.ListPosts)
		social.GET("/posts/:id/logs", socialHandler.ListPostLogs)
		if publishHub != nil {
			social.GET("/stream", func(c *gin.Context) { publishHub.Serve(c) })
		}
	}

	return router
}
