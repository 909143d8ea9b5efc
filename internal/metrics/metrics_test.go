package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(ChannelsRefreshed.WithLabelValues(OutcomeSkipped))
	RecordRefresh(OutcomeSkipped)
	assert.Equal(t, before+1, testutil.ToFloat64(ChannelsRefreshed.WithLabelValues(OutcomeSkipped)))

	beforeErr := testutil.ToFloat64(PostsUpserted.WithLabelValues("error"))
	RecordPostUpsert(false)
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(PostsUpserted.WithLabelValues("error")))

	beforeDigest := testutil.ToFloat64(DigestsPublished.WithLabelValues("telegram", "ok"))
	RecordDigest("telegram", true)
	assert.Equal(t, beforeDigest+1, testutil.ToFloat64(DigestsPublished.WithLabelValues("telegram", "ok")))

	RecordCycle(3 * time.Second)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RecordRefresh(OutcomeUpdated)

	router := gin.New()
	router.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "catalog_channel_refresh_total"))
}
