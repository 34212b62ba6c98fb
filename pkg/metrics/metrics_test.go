package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	SetupMetricsManager("apm-test", "core", prometheus.NewRegistry())

	first := NewCounterVec("witness.cache", []string{"result"})
	second := NewCounterVec("witness.cache", []string{"result"})
	assert.Same(t, first, second)

	other := NewCounterVec("api_error", []string{"method", "api", "status"})
	assert.NotSame(t, first, other)
}

func TestExportHandler(t *testing.T) {
	SetupMetricsManager("apm", "export", prometheus.NewRegistry())
	NewHistogramVec("column_update_time", nil).WithLabelValues().Observe(0.2)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", DefaultExportHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "apm_export_column_update_time"))
}
