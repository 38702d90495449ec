package httpapi

import (
	"net/http"
	"time"

	"catalog.local/gee"
	"catalog.local/internal/app/urlshortener"
	"catalog.local/internal/app/urlshortener/stats"
	"catalog.local/internal/platform/auth"
	"catalog.local/internal/platform/httpmiddleware"
	"catalog.local/internal/platform/ratelimit"
)

var (
	redirectRule = ratelimit.Rule{Name: "redirect", Limit: 100, Window: time.Minute}
	adminRule    = ratelimit.Rule{Name: "admin", Limit: 30, Window: time.Minute}
)

// RegisterPublicRoutes 挂载 GET /short/:id 跳转（100 次/分钟/IP）。
func RegisterPublicRoutes(engine *gee.Engine, s urlshortener.Shortener, collector stats.Collector, limiter *ratelimit.Limiter) {
	engine.GET("/short/:id", httpmiddleware.RateLimit(limiter, redirectRule), NewRedirectHandler(s, collector))
}

// RegisterAdminRoutes 在 api 分组下挂载 /admin 管理接口，需要 admin 角色的 JWT。
func RegisterAdminRoutes(api *gee.RouterGroup, a Admin, ts auth.TokenService, limiter *ratelimit.Limiter) {
	admin := api.Group("/admin")
	admin.Use(
		httpmiddleware.RateLimit(limiter, adminRule),
		httpmiddleware.AuthRequired(ts),
		httpmiddleware.RequireRole(auth.RoleAdmin),
	)
	admin.GET("/ping", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "pong")
	})
	admin.GET("/shortlinks/:id", NewFindHandler(a))
	admin.POST("/shortlinks/:id/disable", NewDisableHandler(a))
	admin.GET("/shortlinks/:id/stats", NewStatsHandler(a))
}
