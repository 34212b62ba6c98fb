package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manuscripta/apm/pkg/metrics"
	"github.com/manuscripta/apm/pkg/myers"
)

type Metrics struct {
	apiResponseTime  *prometheus.HistogramVec
	apiErrorCounter  *prometheus.CounterVec
	witnessCache     *prometheus.CounterVec
	columnUpdateTime *prometheus.HistogramVec
	editScriptOps    *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		witnessCache:     metrics.NewCounterVec("witness_cache", []string{"result"}),
		columnUpdateTime: metrics.NewHistogramVec("column_update_time", nil),
		editScriptOps:    metrics.NewCounterVec("edit_script_ops", []string{"op"}),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

// WitnessCacheInc result: hit / miss / bypass，bypass 表示结果没有写入缓存
func (m *Metrics) WitnessCacheInc(result string) {
	m.witnessCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ColumnUpdateTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.columnUpdateTime.WithLabelValues())
}

func (m *Metrics) EditScriptOps(steps []myers.Step) {
	for op, count := range myers.Stats(steps) {
		if count > 0 {
			m.editScriptOps.WithLabelValues(op.String()).Add(float64(count))
		}
	}
}
