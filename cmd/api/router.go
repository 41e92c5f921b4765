package api

import (
	"net/http"

	"github.com/containersuper/bct-crm/internal/auth/delivery"
	"github.com/containersuper/bct-crm/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := delivery.NewAuthHandler(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Prometheus scrape endpoint
		api.GET("/metrics", metrics.Handler())

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(h.authUsecase), authHandler.Me)
		}

		// Provider connection routes (protected)
		connections := api.Group("/connections")
		connections.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			connections.GET("", h.connHandler.List)
			connections.POST("/:provider/callback", h.connHandler.Callback)
			connections.DELETE("/:provider", h.connHandler.Delete)
		}

		// Sync routes (protected)
		sync := api.Group("/sync")
		sync.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			sync.POST("/incremental", h.syncHandler.RunIncremental)
			sync.POST("/backfill", h.syncHandler.RunBackfill)
			sync.POST("/gmail", h.syncHandler.RunGmailImport)
			sync.GET("/progress", h.syncHandler.GetProgress)
		}

		// Analysis routes (protected)
		analysis := api.Group("/analysis")
		analysis.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			analysis.POST("/email/:id", h.analysisHandler.AnalyzeEmail)
			analysis.GET("/email/:id", h.analysisHandler.GetEmailAnalysis)
			analysis.POST("/customer/:id", h.analysisHandler.AnalyzeCustomer)
			analysis.POST("/price/:id", h.analysisHandler.EstimatePrice)
			analysis.POST("/sales/:id", h.analysisHandler.PredictSales)
			analysis.POST("/emails/queue", h.analysisHandler.QueuePending)
		}

		// Quote routes (protected)
		quotes := api.Group("/quotes")
		quotes.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			quotes.POST("/:id/send", h.crmHandler.SendQuote)
		}
	}
}
