// Package middleware provides gin middleware for the catalog API.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/internal/handler"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// HeaderAdminID carries the caller's user ID on admin requests.
	HeaderAdminID = "X-Admin-ID"
	// ContextAdminID is the gin context key of the authenticated admin ID.
	ContextAdminID = "admin_id"
)

// AdminAuth restricts routes to the configured administrator IDs.
type AdminAuth struct {
	admins config.AdminSet
	logger *zap.Logger
}

// NewAdminAuth creates the middleware. With an empty allow-list every
// request is rejected.
func NewAdminAuth(admins config.AdminSet, log *zap.Logger) *AdminAuth {
	if admins == nil {
		admins = config.AdminSet{}
	}
	return &AdminAuth{
		admins: admins,
		logger: logger.OrNop(log),
	}
}

// Handler returns the gin middleware. A missing or malformed header is 401,
// a well-formed ID outside the allow-list is 403.
func (a *AdminAuth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderAdminID))
		if raw == "" {
			a.reject(c, http.StatusUnauthorized, "missing "+HeaderAdminID+" header", raw)
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			a.reject(c, http.StatusUnauthorized, "malformed "+HeaderAdminID+" header", raw)
			return
		}

		if !a.admins.Contains(id) {
			a.reject(c, http.StatusForbidden, "not an administrator", raw)
			return
		}

		c.Set(ContextAdminID, id)
		c.Next()
	}
}

func (a *AdminAuth) reject(c *gin.Context, status int, message, raw string) {
	a.logger.Warn("admin request rejected",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("admin_id", raw),
		zap.String("remote_addr", c.ClientIP()),
	)
	handler.RespondError(c, status, message)
}

// AdminID returns the authenticated admin ID set by AdminAuth.
func AdminID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextAdminID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
