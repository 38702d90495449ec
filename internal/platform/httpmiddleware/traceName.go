package httpmiddleware

import (
	"catalog.local/gee"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceName 把 otelhttp 建的 span 改名为 "METHOD /route/:pattern"，
// 避免每个 ISBN、短链 id 各成一个 span 名。
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		span := trace.SpanFromContext(ctx.Req.Context())
		if route := ctx.RoutePattern; route != "" {
			span.SetName(ctx.Method + " " + route)
			span.SetAttributes(attribute.String("http.route", route))
		}
		ctx.Next()
	}
}
