// Package metrics 包装 prometheus 的向量注册，所有指标共享同一个 namespace/subsystem
package metrics

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry
}

var (
	mu             sync.RWMutex
	defaultManager = &manager{
		namespace: "default",
		system:    "default",
		registry:  prometheus.NewRegistry(),
	}
)

func RegisterGoMetrics(r prometheus.Registerer) {
	register(r, collectors.NewGoCollector())
	register(r, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// SetupMetricsManager 之后创建的指标都注册到 registry 上
func SetupMetricsManager(ns, system string, registry *prometheus.Registry) {
	mu.Lock()
	defaultManager = &manager{
		namespace: FmtFixer(ns),
		system:    FmtFixer(system),
		registry:  registry,
	}
	mu.Unlock()
	RegisterGoMetrics(registry)
}

func MustGetDefaultManager() (string, string, *prometheus.Registry) {
	mu.RLock()
	defer mu.RUnlock()
	return defaultManager.namespace, defaultManager.system, defaultManager.registry
}

// register 同名指标已经注册过时返回已有的 collector，多次 setup 的进程（测试）共用同一组计数
func register[T prometheus.Collector](r prometheus.Registerer, c T) T {
	if err := r.Register(c); err != nil {
		var exist prometheus.AlreadyRegisteredError
		if errors.As(err, &exist) {
			if existing, ok := exist.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func NewCounterVec(name string, labels []string) *prometheus.CounterVec {
	ns, system, registry := MustGetDefaultManager()
	return register(registry, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: system,
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s count of /%s/%s", name, ns, system),
		},
		labels,
	))
}

// NewHistogramVec 使用默认的秒级 bucket
func NewHistogramVec(name string, labels []string) *prometheus.HistogramVec {
	ns, system, registry := MustGetDefaultManager()
	return register(registry, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: system,
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s duration of /%s/%s", name, ns, system),
			Buckets:   prometheus.DefBuckets,
		},
		labels,
	))
}

func NewGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	ns, system, registry := MustGetDefaultManager()
	return register(registry, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: system,
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s gauge of /%s/%s", name, ns, system),
		},
		labels,
	))
}

// DefaultExportHandler GET /metrics
func DefaultExportHandler() gin.HandlerFunc {
	_, _, registry := MustGetDefaultManager()
	h := promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func FmtFixer(in string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(in)
}
