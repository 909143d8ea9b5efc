// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/repository"
	"github.com/chancat/channel-catalog-go/internal/service/catalog"
	"github.com/chancat/channel-catalog-go/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog is the moderation workflow the handlers expose.
type Catalog interface {
	Submit(ctx context.Context, rawHandle, title string, submitterID int64) (*catalog.SubmitResult, error)
	Approve(ctx context.Context, channelID int64) error
	Reject(ctx context.Context, channelID int64) error
	Delete(ctx context.Context, channelID int64) error
	Get(ctx context.Context, channelID int64) (*catalog.ChannelDetails, error)
	GetByHandle(ctx context.Context, rawHandle string) (*models.Channel, error)
	List(ctx context.Context, status models.Status) ([]*models.Channel, error)
	Summary(ctx context.Context) (*models.StatusCounts, error)
	PostText(ctx context.Context, channelID, messageID int64) (string, error)
}

// Ranker is the ranking engine the handlers expose.
type Ranker interface {
	ByMetric(ctx context.Context, metric models.Metric, limit int) ([]models.RankedPost, error)
	SmallChannelViews(ctx context.Context, limit int) ([]models.RankedPost, error)
	ByGrowth(ctx context.Context, period string, limit int) ([]models.RankedChannel, error)
}

// TaskEnqueuer schedules background work on the worker.
type TaskEnqueuer interface {
	EnqueueCycle(ctx context.Context) error
	EnqueueDigest(ctx context.Context) error
}

var errBadID = errors.New("invalid id")

func parseID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", errBadID, param)
	}
	return id, nil
}

// handleError maps service errors onto HTTP statuses. Only plain-language
// messages reach the client; the raw error is logged.
func handleError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalidHandle):
		RespondError(c, http.StatusBadRequest, "Not a valid public channel username or link")
	case errors.Is(err, validation.ErrInvalidTitle):
		RespondError(c, http.StatusBadRequest, fmt.Sprintf("Title must be 1 to %d characters", validation.MaxTitleLength))
	case errors.Is(err, repository.ErrInvalidStatus):
		RespondError(c, http.StatusBadRequest, "Status must be pending, approved or rejected")
	case errors.Is(err, errBadID):
		RespondError(c, http.StatusBadRequest, "Identifier must be a positive integer")
	case db.IsNotFound(err):
		RespondError(c, http.StatusNotFound, "Channel not found")
	case db.IsDuplicateKey(err):
		RespondError(c, http.StatusConflict, "Channel is already in the catalog")
	case db.IsForeignKeyViolation(err):
		RespondError(c, http.StatusConflict, "Channel changed while the request was running")
	default:
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		RespondError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
