package delivery

import (
	"net/http"

	"github.com/containersuper/bct-crm/internal/analysis/repository"
	"github.com/containersuper/bct-crm/internal/analysis/usecase"
	"github.com/containersuper/bct-crm/pkg/apperr"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	dispatcher *usecase.Dispatcher
	worker     *usecase.ClassificationWorker
	analytics  repository.AnalyticsRepository
}

func NewAnalysisHandler(
	dispatcher *usecase.Dispatcher,
	worker *usecase.ClassificationWorker,
	analytics repository.AnalyticsRepository,
) *AnalysisHandler {
	return &AnalysisHandler{dispatcher: dispatcher, worker: worker, analytics: analytics}
}

// AnalyzeEmail classifies one stored message synchronously.
func (h *AnalysisHandler) AnalyzeEmail(c *gin.Context) {
	result, err := h.dispatcher.AnalyzeEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": result})
}

// AnalyzeCustomer builds a customer intelligence profile.
func (h *AnalysisHandler) AnalyzeCustomer(c *gin.Context) {
	result, err := h.dispatcher.AnalyzeCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "intelligence": result})
}

// EstimatePrice suggests a price for a deal.
func (h *AnalysisHandler) EstimatePrice(c *gin.Context) {
	result, err := h.dispatcher.EstimatePrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "estimate": result})
}

// PredictSales forecasts a customer's revenue.
func (h *AnalysisHandler) PredictSales(c *gin.Context) {
	result, err := h.dispatcher.PredictSales(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "prediction": result})
}

// GetEmailAnalysis returns a cached classification without calling the model.
func (h *AnalysisHandler) GetEmailAnalysis(c *gin.Context) {
	result, err := h.analytics.GetEmailAnalytics(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no analysis for this email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": result})
}

type queueRequest struct {
	Limit int `json:"limit"`
}

// QueuePending enqueues stored messages awaiting classification for the
// background workers.
func (h *AnalysisHandler) QueuePending(c *gin.Context) {
	var req queueRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	queued, err := h.worker.QueuePendingEmails(req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "queued": queued})
}

func respondError(c *gin.Context, err error) {
	switch {
	case apperr.IsInvalidModelResponse(err):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
	case apperr.IsProviderAPIError(err):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
	case apperr.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}
