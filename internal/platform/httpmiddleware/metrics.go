package httpmiddleware

import (
	"strconv"
	"time"

	"catalog.local/gee"
	"catalog.local/internal/platform/metrics"
)

// unmatchedRoute 让 404 扫描不至于撑爆 route 标签的基数
const unmatchedRoute = "UNMATCHED"

// Metrics 按 method/route/status 记录请求数和耗时。
func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		metrics.HTTPInflightRequests.Inc()
		start := time.Now()
		defer func() {
			metrics.HTTPInflightRequests.Dec()
			route := ctx.RoutePattern
			if route == "" {
				route = unmatchedRoute
			}
			code := strconv.Itoa(ctx.Writer.Status())
			metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, code).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
		}()
		ctx.Next()
	}
}
