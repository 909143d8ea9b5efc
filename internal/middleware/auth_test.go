package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(admins config.AdminSet) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/admin", NewAdminAuth(admins, nil).Handler(), func(c *gin.Context) {
		id, ok := AdminID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin_id": id})
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	admins, err := config.ParseAdminIDs("100, 200")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "allowed admin", header: "100", wantStatus: http.StatusOK},
		{name: "surrounding whitespace", header: " 200 ", wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "non numeric", header: "abc", wantStatus: http.StatusUnauthorized},
		{name: "negative", header: "-100", wantStatus: http.StatusUnauthorized},
		{name: "not in allow-list", header: "300", wantStatus: http.StatusForbidden},
	}

	r := newTestRouter(admins)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(HeaderAdminID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				var body handler.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantStatus, body.Status)
				assert.Equal(t, "/admin", body.Path)
				assert.NotEmpty(t, body.Message)
			}
		})
	}
}

func TestAdminAuth_EmptyAllowListRejectsAll(t *testing.T) {
	r := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(HeaderAdminID, "100")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAuth_SetsContextID(t *testing.T) {
	admins, err := config.ParseAdminIDs("42")
	require.NoError(t, err)
	r := newTestRouter(admins)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(HeaderAdminID, "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"admin_id":42}`, w.Body.String())
}
