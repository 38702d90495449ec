// Package metrics 定义进程内所有 Prometheus 指标，由 admin 端口的 /metrics 暴露。
//
// route 标签一律用路由模板（/short/:id），不用真实路径，否则标签基数没有上限。
package metrics

import (
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// 页面渲染会串行调用多个外部内容源，默认桶的上限 10s 之外再补一个 30s
var latencyBuckets = append(slices.Clone(prometheus.DefBuckets), 30)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_request_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: latencyBuckets,
	}, []string{"method", "route"})

	HTTPInflightRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests currently being served.",
	})

	// level=l1/l2，result=hit/hit_negative/miss
	CacheOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_cache_operations_total",
		Help: "Short URL cache lookups by level and result.",
	}, []string{"level", "result"})

	ShortlinkRedirects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shortlink_redirects_total",
		Help: "Short URL redirects served.",
	})

	// helper 是注册表里的名字，outcome=ok/error
	ViewHelperCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "view_helper_calls_total",
		Help: "Template view helper invocations.",
	}, []string{"helper", "outcome"})

	ContentProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_provider_requests_total",
		Help: "Outbound content provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	RateLimitRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter, by rule.",
	}, []string{"rule"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		HTTPInflightRequests,
		CacheOperations,
		ShortlinkRedirects,
		ViewHelperCalls,
		ContentProviderRequests,
		RateLimitRejections,
	}
}

// Init 把指标注册到默认 registry；重复调用无副作用（重复注册会 panic）。
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors()...)
	})
}
