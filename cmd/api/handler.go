package api

import (
	analysisDelivery "github.com/containersuper/bct-crm/internal/analysis/delivery"
	authUsecase "github.com/containersuper/bct-crm/internal/auth/usecase"
	connDelivery "github.com/containersuper/bct-crm/internal/connection/delivery"
	crmDelivery "github.com/containersuper/bct-crm/internal/crm/delivery"
	syncDelivery "github.com/containersuper/bct-crm/internal/syncer/delivery"
	"github.com/containersuper/bct-crm/pkg/config"
	"github.com/containersuper/bct-crm/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	config          *config.Config
	authUsecase     authUsecase.AuthUsecase
	connHandler     *connDelivery.ConnectionHandler
	syncHandler     *syncDelivery.SyncHandler
	crmHandler      *crmDelivery.CRMHandler
	analysisHandler *analysisDelivery.AnalysisHandler
}

func NewHandler(
	cfg *config.Config,
	authUc authUsecase.AuthUsecase,
	connHandler *connDelivery.ConnectionHandler,
	syncHandler *syncDelivery.SyncHandler,
	crmHandler *crmDelivery.CRMHandler,
	analysisHandler *analysisDelivery.AnalysisHandler,
) *Handler {
	return &Handler{
		config:          cfg,
		authUsecase:     authUc,
		connHandler:     connHandler,
		syncHandler:     syncHandler,
		crmHandler:      crmHandler,
		analysisHandler: analysisHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.Use(metrics.Middleware())

	SetupRoutes(r, h)

	return r.Run(addr)
}
