package handler

import (
	"context"
	"net/http"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the moderation endpoints.
type AdminHandler struct {
	catalog Catalog
	tasks   TaskEnqueuer
	logger  *zap.Logger
}

// NewAdminHandler creates an AdminHandler. tasks may be nil when no worker
// queue is configured; the trigger endpoints then answer 503.
func NewAdminHandler(c Catalog, tasks TaskEnqueuer, log *zap.Logger) *AdminHandler {
	return &AdminHandler{catalog: c, tasks: tasks, logger: logger.OrNop(log)}
}

// Summary handles GET /api/v1/admin/summary.
func (h *AdminHandler) Summary(c *gin.Context) {
	counts, err := h.catalog.Summary(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// List handles GET /api/v1/admin/channels?status=.
func (h *AdminHandler) List(c *gin.Context) {
	channels, err := h.catalog.List(c.Request.Context(), models.Status(c.Query("status")))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels, "count": len(channels)})
}

// Get handles GET /api/v1/admin/channels/:id.
func (h *AdminHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	details, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Approve handles POST /api/v1/admin/channels/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	h.moderate(c, h.catalog.Approve, models.StatusApproved)
}

// Reject handles POST /api/v1/admin/channels/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	h.moderate(c, h.catalog.Reject, models.StatusRejected)
}

func (h *AdminHandler) moderate(c *gin.Context, apply func(ctx context.Context, id int64) error, status models.Status) {
	id, err := parseID(c, "id")
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if err := apply(c.Request.Context(), id); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// Delete handles DELETE /api/v1/admin/channels/:id.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Collect handles POST /api/v1/admin/collect.
func (h *AdminHandler) Collect(c *gin.Context) {
	if h.tasks == nil {
		RespondError(c, http.StatusServiceUnavailable, "Task queue is not configured")
		return
	}
	if err := h.tasks.EnqueueCycle(c.Request.Context()); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Collection cycle queued"})
}

// Digest handles POST /api/v1/admin/digest.
func (h *AdminHandler) Digest(c *gin.Context) {
	if h.tasks == nil {
		RespondError(c, http.StatusServiceUnavailable, "Task queue is not configured")
		return
	}
	if err := h.tasks.EnqueueDigest(c.Request.Context()); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Digest queued"})
}
