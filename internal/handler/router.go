package handler

import (
	"net/http"

	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/gin-gonic/gin"
)

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Channels *ChannelHandler
	Rankings *RankingHandler
	Admin    *AdminHandler
	Health   *HealthHandler
	// AdminAuth guards every /api/v1/admin route.
	AdminAuth gin.HandlerFunc
	// Metrics serves /metrics when set.
	Metrics gin.HandlerFunc
}

// NewRouter mounts the API on engine.
func NewRouter(engine *gin.Engine, r Routes) *gin.Engine {
	engine.GET("/health/live", r.Health.LivenessProbe)
	engine.GET("/health/ready", r.Health.ReadinessProbe)
	if r.Metrics != nil {
		engine.GET("/metrics", r.Metrics)
	}

	api := engine.Group("/api/v1")

	api.POST("/channels", r.Channels.Submit)
	api.GET("/channels/:handle", r.Channels.GetByHandle)
	api.GET("/channels/id/:id/posts/:messageId/text", r.Channels.PostText)

	rankings := api.Group("/rankings")
	rankings.GET("/reactions", r.Rankings.Posts(models.MetricReactions))
	rankings.GET("/views", r.Rankings.Posts(models.MetricViews))
	rankings.GET("/forwards", r.Rankings.Posts(models.MetricForwards))
	rankings.GET("/small-channels", r.Rankings.SmallChannels)
	rankings.GET("/growth", r.Rankings.Growth)

	auth := r.AdminAuth
	if auth == nil {
		auth = denyAll
	}
	admin := api.Group("/admin", auth)
	admin.GET("/summary", r.Admin.Summary)
	admin.GET("/channels", r.Admin.List)
	admin.GET("/channels/:id", r.Admin.Get)
	admin.POST("/channels/:id/approve", r.Admin.Approve)
	admin.POST("/channels/:id/reject", r.Admin.Reject)
	admin.DELETE("/channels/:id", r.Admin.Delete)
	admin.POST("/collect", r.Admin.Collect)
	admin.POST("/digest", r.Admin.Digest)

	return engine
}

func denyAll(c *gin.Context) {
	RespondError(c, http.StatusForbidden, "Admin access is not configured")
}
