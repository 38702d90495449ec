package middleware

import (
	"log/slog"
	"time"

	"catalog.local/gee"
)

// AccessLog 每个请求结束后打一条 "access" 日志；5xx 记 Error，4xx 记 Warn。
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		slog.Log(ctx.Req.Context(), level, "access",
			"request_id", RequestID(ctx),
			"method", ctx.Method,
			"path", ctx.Path,
			"route", route,
			"status", status,
			"bytes", ctx.Writer.Size(),
			"user_agent", ctx.Req.UserAgent(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
