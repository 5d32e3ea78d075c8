// Package metrics 提供基于Prometheus的指标收集
//
// # 指标类型
//
//   - Counter（计数器）：只增不减，如请求总数、搜索降级次数
//   - Gauge（仪表盘）：可增可减，如正在处理的请求数
//   - Histogram（直方图）：观测值分布，如请求耗时
//
// # 使用示例
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(metrics.Handler()))
//
//	// 业务代码中
//	metrics.IncCounter(metrics.SearchFallbacksTotal)
//
// # 命名规范
//
//   - Counter以`_total`结尾
//   - Histogram以单位结尾（`_seconds`）
//   - 标签只使用有限取值（method、route、status），不要用book_id之类的高基数标签
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method、route（路由模板，如/api/books/:id）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 业务指标

	// SearchFallbacksTotal 正则搜索降级为子串搜索的次数（Counter）
	SearchFallbacksTotal prometheus.Counter

	// StoreErrorsTotal 存储错误次数（Counter）
	// 标签：kind（unavailable/internal）
	StoreErrorsTotal *prometheus.CounterVec

	// RateLimitedTotal 被限流的请求数（Counter）
	RateLimitedTotal prometheus.Counter

	// EventsPublishedTotal 图书事件发布次数（Counter）
	// 标签：type（book.created等）、result（success/failure/rejected）
	EventsPublishedTotal *prometheus.CounterVec

	// BreakerState 熔断器状态（Gauge）：0关闭、1打开、2半开
	// 标签：name
	BreakerState *prometheus.GaugeVec
)

// InitMetrics 初始化所有Prometheus指标
//
// 可以重复调用，只有第一次生效（promauto重复注册会panic）
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "route", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP请求耗时（秒）",
				// 1ms、10ms、100ms、500ms、1s、5s、10s
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "route"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		SearchFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "book_search_fallbacks_total",
				Help: "正则搜索降级为子串搜索的次数",
			},
		)

		StoreErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_store_errors_total",
				Help: "存储错误次数",
			},
			[]string{"kind"},
		)

		RateLimitedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "被限流的请求数",
			},
		)

		EventsPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_events_published_total",
				Help: "图书事件发布次数",
			},
			[]string{"type", "result"},
		)

		BreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0关闭、1打开、2半开）",
			},
			[]string{"name"},
		)
	})
}

// Handler 返回/metrics端点处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// =========================================
// 便捷函数
// =========================================
// 指标未初始化（nil）时静默忽略，便于单元测试不依赖全局注册

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec的值
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
