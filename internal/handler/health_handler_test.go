package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubHealth bool

func (h stubHealth) IsHealthy() bool { return bool(h) }

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	if handler == nil {
		t.Fatal("NewHealthHandler() returned nil")
	}
}

func TestHealthHandler_LivenessProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewHealthHandler(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health/live", nil)

	handler.LivenessProbe(c)

	if w.Code != http.StatusOK {
		t.Errorf("LivenessProbe() status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if body == "" {
		t.Error("LivenessProbe() returned empty body")
	}
}

func TestHealthHandler_ReadinessProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		db         Pinger
		publisher  HealthChecker
		wantStatus int
		wantBody   string
	}{
		{name: "database up", db: stubPinger{}, wantStatus: http.StatusOK, wantBody: `"database":"healthy"`},
		{name: "database down", db: stubPinger{err: errors.New("refused")}, wantStatus: http.StatusServiceUnavailable, wantBody: `"database":"unhealthy"`},
		{name: "no database", wantStatus: http.StatusServiceUnavailable},
		{name: "broker up", db: stubPinger{}, publisher: stubHealth(true), wantStatus: http.StatusOK, wantBody: `"rabbitmq":"healthy"`},
		{name: "broker down", db: stubPinger{}, publisher: stubHealth(false), wantStatus: http.StatusServiceUnavailable, wantBody: `"rabbitmq":"unhealthy"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/health/ready", nil)

			NewHealthHandler(tt.db, tt.publisher).ReadinessProbe(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "refused")
		})
	}
}
