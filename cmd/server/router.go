package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"realtychat/internal/config"
	"realtychat/internal/handler"
	"realtychat/internal/middleware"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// routerDeps is everything the HTTP surface needs
type routerDeps struct {
	Server    config.ServerConfig
	RateLimit config.RateLimitConfig
	Chat      handler.ChatEngine
	Catalog   handler.ListingCatalog
	// Ping reports whether the database answers, for /health/ready
	Ping         func(ctx context.Context) error
	SimilarLimit int
	MaxLimit     int
	Logger       *zap.Logger
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(d.Logger))
	router.Use(middleware.RequestLogger(d.Logger))

	corsConfig := cors.DefaultConfig()
	origins := splitList(d.Server.AllowedOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = splitList(d.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(d.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "realtychat",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "Database not ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatHandler := handler.NewChatHandler(d.Chat)
	listingHandler := handler.NewListingHandler(d.Catalog, d.SimilarLimit, d.MaxLimit)
	embeddingHandler := handler.NewEmbeddingHandler(d.Catalog)
	feedbackHandler := handler.NewFeedbackHandler(d.Catalog)

	apiV1 := router.Group("/api/v1")
	{
		// Chat endpoints
		apiV1.POST("/chat", middleware.RateLimit(d.RateLimit, d.Logger), chatHandler.Chat)
		apiV1.GET("/sessions/:id", chatHandler.GetSession)
		apiV1.DELETE("/sessions/:id", chatHandler.DeleteSession)

		// Listing endpoints
		apiV1.GET("/listings/:id", listingHandler.GetListing)
		apiV1.GET("/listings/:id/similar", listingHandler.Similar)

		// Embedding endpoints
		apiV1.POST("/embeddings/batch", embeddingHandler.BatchUpdate)

		// Feedback endpoint
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
			"hint":  "POST /api/v1/chat with {\"message\": \"3BR apartments in Galle under 80M\"}",
		})
	})

	return router
}
