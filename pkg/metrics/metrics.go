// Package metrics 提供基于Prometheus的指标收集
//
// 指标类型速记：
// - **Counter（计数器）**: 只增不减（请求总数、订单总数、LLM失败数）
// - **Gauge（仪表盘）**: 可增可减的瞬时值（熔断器状态、处理中请求数）
// - **Histogram（直方图）**: 观测值分布，自动计算分位数（请求耗时、召回数量）
//
// 命名规范：
// 1. Counter以`_total`结尾（chat_turns_total）
// 2. Histogram以单位结尾（http_request_duration_seconds）
// 3. 避免高基数标签：用intent、status做标签，不要用session_id
//
// 使用方式：
//
//	metrics.InitMetrics()
//	http.Handle("/metrics", promhttp.Handler())
//	...
//	metrics.ChatTurnsTotal.With(prometheus.Labels{"intent": "order"}).Inc()
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册panic）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path（/api/v1/chat）、status（200/500）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 对话业务指标

	// ChatTurnsTotal 对话轮次总数（Counter）
	// 标签：intent（search/order/order_status/general）
	ChatTurnsTotal *prometheus.CounterVec

	// OrdersCreatedTotal 订单创建总数（Counter）
	OrdersCreatedTotal prometheus.Counter

	// OrdersFailedTotal 订单创建失败总数（Counter）
	OrdersFailedTotal prometheus.Counter

	// RetrievalCandidates 单次检索返回的候选数量分布（Histogram）
	RetrievalCandidates prometheus.Histogram

	// 外部依赖指标

	// LLMRequestsTotal 大模型调用总数（Counter）
	// 标签：op（generate/embed）、result（success/failure/rejected）
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestDuration 大模型调用耗时（Histogram）
	LLMRequestDuration *prometheus.HistogramVec

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 初始化所有Prometheus指标
//
// 必须在程序启动时调用一次，注册所有指标到默认Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	// HTTP请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	// 对话业务指标
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "对话轮次总数",
		},
		[]string{"intent"},
	)

	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "订单创建总数",
		},
	)

	OrdersFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_failed_total",
			Help: "订单创建失败总数",
		},
	)

	RetrievalCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieval_candidates",
			Help:    "单次检索返回的候选数量",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// 外部依赖指标
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "大模型调用总数",
		},
		[]string{"op", "result"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "llm_request_duration_seconds",
			Help: "大模型调用耗时（秒）",
			// 本地模型推理通常在百毫秒到数十秒之间
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"op"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)
}
