package handler

import (
	"net/http"
	"strconv"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RankingHandler serves the public leaderboards.
type RankingHandler struct {
	ranker Ranker
	logger *zap.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(r Ranker, log *zap.Logger) *RankingHandler {
	return &RankingHandler{ranker: r, logger: logger.OrNop(log)}
}

// Posts returns a handler for one post ranking.
func (h *RankingHandler) Posts(metric models.Metric) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := h.limit(c)
		if !ok {
			return
		}
		items, err := h.ranker.ByMetric(c.Request.Context(), metric, limit)
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ranking": metric, "items": items})
	}
}

// SmallChannels handles GET /api/v1/rankings/small-channels.
func (h *RankingHandler) SmallChannels(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	items, err := h.ranker.SmallChannelViews(c.Request.Context(), limit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": "small-channels", "items": items})
}

// Growth handles GET /api/v1/rankings/growth?period=7d|30d.
func (h *RankingHandler) Growth(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	period := models.ParsePeriod(c.Query("period"))
	items, err := h.ranker.ByGrowth(c.Request.Context(), string(period), limit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": "growth", "period": period, "items": items})
}

// limit reads ?limit=; absent means the engine default.
func (h *RankingHandler) limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "limit must be an integer")
		return 0, false
	}
	return n, true
}
