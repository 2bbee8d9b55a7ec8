package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务运行指标
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	batchDuration     prometheus.Histogram
	officesTotal      prometheus.Counter
	failuresTotal     prometheus.Counter
	importsTotal      *prometheus.CounterVec
}

// New 创建并注册指标（独立 registry，便于测试中多次创建）
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labpulse_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labpulse_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labpulse_aggregation_batch_duration_seconds",
			Help:    "Histogram of office aggregation batch durations.",
			Buckets: prometheus.DefBuckets,
		}),
		officesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labpulse_offices_aggregated_total",
			Help: "Total offices submitted to aggregation.",
		}),
		failuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labpulse_repository_failures_total",
			Help: "Total offices whose aggregation failed at the repository.",
		}),
		importsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labpulse_imports_total",
			Help: "Total workbook imports by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.batchDuration,
		m.officesTotal,
		m.failuresTotal,
		m.importsTotal,
		collectors.NewGoCollector(),
	)

	return m
}

// ObserveBatch 记录一次批量汇总
func (m *Metrics) ObserveBatch(elapsed time.Duration, offices, failures int) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(elapsed.Seconds())
	m.officesTotal.Add(float64(offices))
	m.failuresTotal.Add(float64(failures))
}

// ObserveImport 记录一次导入
func (m *Metrics) ObserveImport(importType string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.importsTotal.WithLabelValues(importType, outcome).Inc()
}

// Middleware gin 请求计数与耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
