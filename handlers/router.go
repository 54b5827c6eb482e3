package handlers

import (
	"net/http"

	"motion-monitor/be/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	Panel     *PanelHandler
	Status    *StatusHandler
	Stream    *StreamHandler
	Auth      *AuthHandler
	JWTSecret string
	Logger    *zap.Logger
}

func (r Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(r.Logger))
	router.SetHTMLTemplate(Templates())

	// dev frontends on other localhost ports embed the feed and call the API
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if origin == "" {
				return true
			}
			return origin == "http://localhost:8080" ||
				origin == "http://localhost:5173" ||
				origin == "http://localhost:3000" ||
				origin == "http://127.0.0.1:8080" ||
				origin == "http://127.0.0.1:5173" ||
				origin == "http://127.0.0.1:3000"
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", r.Panel.Index)
	router.GET("/video_feed", r.Stream.GetVideoFeed)

	api := router.Group("/api/v1")
	{
		api.GET("/status", r.Panel.GetStatus)
		api.GET("/status/view", r.Panel.GetView)
		api.GET("/status/ws", r.Panel.StatusWebSocket)
		api.GET("/status/events", r.Panel.StatusEvents)
		api.POST("/auth/token", r.Auth.IssueToken)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(r.JWTSecret, r.Logger))
	{
		protected.POST("/status", r.Status.PostStatus)
		protected.GET("/status/history", r.Status.GetHistory)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}
