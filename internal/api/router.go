package api

import (
	"net/http"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const serviceName = "cms-api"

// NewRouter creates and configures the Gin router. gatherer backs /metrics.
func NewRouter(services *service.Services, m *metrics.Metrics, gatherer prometheus.Gatherer, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(requestIDMiddleware())
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware(m))
	router.Use(corsMiddleware())
	router.Use(actorMiddleware())

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	categoryHandler := NewCategoryHandler(services, log)
	tagHandler := NewTagHandler(services, log)
	adminHandler := NewAdminHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1
	v1 := router.Group("/v1", mutatingRequiresActor())
	{
		v1.GET("/stats", adminHandler.Stats)
		v1.GET("/audit-logs", requireActor(), adminHandler.AuditLogs)

		articles := v1.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.POST("", articleHandler.Create)
			articles.GET("/slug/:slug", articleHandler.GetBySlug)
			articles.GET("/:id", articleHandler.Get)
			articles.PATCH("/:id", articleHandler.Update)
			articles.DELETE("/:id", articleHandler.Delete)
			articles.POST("/:id/submit", articleHandler.Submit)
			articles.POST("/:id/review", articleHandler.StartReview)
			articles.POST("/:id/approve", articleHandler.Approve)
			articles.POST("/:id/reject", articleHandler.Reject)
			articles.POST("/:id/publish", articleHandler.Publish)
			articles.PUT("/:id/status", articleHandler.SetStatus)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/tree", categoryHandler.Tree)
			categories.POST("", categoryHandler.Create)
			categories.GET("/:id", categoryHandler.Get)
			categories.GET("/:id/ancestors", categoryHandler.Ancestors)
			categories.PATCH("/:id", categoryHandler.Update)
			categories.PUT("/:id/parent", categoryHandler.Move)
			categories.DELETE("/:id", categoryHandler.Delete)
		}

		tags := v1.Group("/tags")
		{
			tags.GET("", tagHandler.List)
			tags.POST("", tagHandler.Create)
			tags.GET("/:id", tagHandler.Get)
			tags.PATCH("/:id", tagHandler.Update)
			tags.DELETE("/:id", tagHandler.Delete)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   serviceName,
	})
}
