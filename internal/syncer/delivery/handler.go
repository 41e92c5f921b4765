package delivery

import (
	"net/http"
	"time"

	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	"github.com/containersuper/bct-crm/internal/syncer/repository"
	"github.com/containersuper/bct-crm/internal/syncer/usecase"
	"github.com/containersuper/bct-crm/pkg/apperr"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	orchestrator *usecase.Orchestrator
	progress     repository.ProgressRepository
}

func NewSyncHandler(orchestrator *usecase.Orchestrator, progress repository.ProgressRepository) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, progress: progress}
}

// RunIncremental triggers an incremental pass for the calling user.
func (h *SyncHandler) RunIncremental(c *gin.Context) {
	userID := c.GetString("userID")

	summary, err := h.orchestrator.RunIncrementalForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

type backfillRequest struct {
	// EntityType is a TeamLeader entity ("contacts", "deals", ...) or "gmail".
	EntityType string `json:"entity_type" binding:"required"`
	From       string `json:"from" binding:"required"`
	To         string `json:"to" binding:"required"`
}

func (h *SyncHandler) RunBackfill(c *gin.Context) {
	userID := c.GetString("userID")

	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if !validEntityType(req.EntityType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown entity_type"})
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "to must be YYYY-MM-DD"})
		return
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "from must be before to"})
		return
	}

	summary, err := h.orchestrator.RunBackfill(c.Request.Context(), userID, req.EntityType, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

type gmailImportRequest struct {
	MaxBatches int `json:"max_batches"`
}

func (h *SyncHandler) RunGmailImport(c *gin.Context) {
	userID := c.GetString("userID")

	var req gmailImportRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	summary, err := h.orchestrator.RunGmailImport(c.Request.Context(), userID, req.MaxBatches)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

func (h *SyncHandler) GetProgress(c *gin.Context) {
	userID := c.GetString("userID")
	importType := c.Query("import_type")

	rows, err := h.progress.ListByUser(userID, importType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "progress": rows})
}

func validEntityType(entity string) bool {
	if entity == "gmail" {
		return true
	}
	for _, e := range crmdomain.AllEntities() {
		if e == entity {
			return true
		}
	}
	return false
}

func respondError(c *gin.Context, err error) {
	switch {
	case apperr.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
	case apperr.IsProviderAPIError(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}
