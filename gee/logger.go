package gee

import (
	"log/slog"
	"time"
)

// Logger 是调试用的轻量请求日志；线上用 middleware.AccessLog。
func Logger() HandlerFunc {
	return func(ctx *Context) {
		start := time.Now()
		ctx.Next()
		slog.Debug("request",
			"method", ctx.Method,
			"route", ctx.RoutePattern,
			"uri", ctx.Req.RequestURI,
			"status", ctx.Writer.Status(),
			"bytes", ctx.Writer.Size(),
			"latency_us", time.Since(start).Microseconds(),
			"request_id", ctx.requestID())
	}
}
