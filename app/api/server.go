package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the gin engine with all routes configured. imagesDir is
// mounted under /static/images so stored references like
// "images/<key>.jpg" resolve against "/static/".
func NewServer(handler *Handler, imagesDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(requestLogger())
	r.Use(gin.Recovery())

	r.GET("/articles", handler.GetArticles)
	r.GET("/stats", handler.GetStats)
	r.GET("/health", handler.GetHealth)
	r.POST("/refresh", handler.Refresh)

	r.Static("/static/images", imagesDir)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "NewsHub",
			"description": "Nigerian news aggregator with image extraction and caching",
			"endpoints": map[string]string{
				"articles": "/articles?limit=<n>&mode=latest|sample",
				"stats":    "/stats",
				"health":   "/health",
				"refresh":  "/refresh (POST)",
				"images":   "/static/images/<file>",
			},
		})
	})

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client", c.ClientIP())
	}
}
