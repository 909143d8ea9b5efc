package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chancat/channel-catalog-go/internal/service/catalog"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChannelHandler serves the public channel endpoints.
type ChannelHandler struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(c Catalog, log *zap.Logger) *ChannelHandler {
	return &ChannelHandler{catalog: c, logger: logger.OrNop(log)}
}

// SubmitRequest is the body of POST /api/v1/channels.
type SubmitRequest struct {
	Handle      string `json:"handle" binding:"required"`
	Title       string `json:"title"`
	SubmitterID int64  `json:"submitter_id" binding:"required,gt=0"`
}

// SubmitResponse tells the submitter what happened.
type SubmitResponse struct {
	*catalog.SubmitResult
	Message string `json:"message"`
}

// Submit handles POST /api/v1/channels.
func (h *ChannelHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Request must carry handle and a positive submitter_id")
		return
	}

	res, err := h.catalog.Submit(c.Request.Context(), req.Handle, req.Title, req.SubmitterID)
	if errors.Is(err, catalog.ErrQuotaExceeded) {
		limit := int64(0)
		if res != nil && res.Quota != nil {
			limit = res.Quota.Limit
		}
		RespondError(c, http.StatusTooManyRequests, fmt.Sprintf("You have reached the limit of %d submitted channels", limit))
		return
	}
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	if res.Created {
		c.JSON(http.StatusCreated, SubmitResponse{SubmitResult: res, Message: "Channel submitted for moderation"})
		return
	}
	c.JSON(http.StatusOK, SubmitResponse{
		SubmitResult: res,
		Message:      fmt.Sprintf("Channel already submitted, status: %s", res.Channel.Status),
	})
}

// GetByHandle handles GET /api/v1/channels/:handle.
func (h *ChannelHandler) GetByHandle(c *gin.Context) {
	ch, err := h.catalog.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// PostText handles GET /api/v1/channels/id/:id/posts/:messageId/text. An
// unknown post has empty text.
func (h *ChannelHandler) PostText(c *gin.Context) {
	channelID, err := parseID(c, "id")
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	messageID, err := parseID(c, "messageId")
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	text, err := h.catalog.PostText(c.Request.Context(), channelID, messageID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel_id": channelID,
		"message_id": messageID,
		"text":       text,
	})
}
