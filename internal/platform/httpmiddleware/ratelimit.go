package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"catalog.local/gee"
	"catalog.local/internal/platform/metrics"
	"catalog.local/internal/platform/ratelimit"
)

// Redis 慢的时候宁可放行也不拖住请求
const rateLimitTimeout = 50 * time.Millisecond

// ClientIP 取真实客户端 IP，用于限流和点击统计。
//
// 只有直连方是可信代理（回环、私网、IPv6 ULA）时才看转发头，
// 否则客户端可以伪造 X-Forwarded-For 绕过按 IP 的限流。
func ClientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	remote, err := netip.ParseAddr(host)
	if err != nil || !trustedProxy(remote) {
		return host
	}

	// CF-Connecting-IP 由 Cloudflare 注入；XFF 取第一跳
	candidates := []string{
		req.Header.Get("CF-Connecting-IP"),
		firstHop(req.Header.Get("X-Forwarded-For")),
		req.Header.Get("X-Real-IP"),
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if _, err := netip.ParseAddr(c); err == nil {
			return c
		}
	}
	return host
}

func firstHop(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return first
}

func trustedProxy(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() || ip.IsPrivate()
}

// RateLimit 按客户端 IP 套用 rule；limiter 为 nil（RATELIMIT_ENABLED=false）时直接放行。
func RateLimit(limiter *ratelimit.Limiter, rule ratelimit.Rule) gee.HandlerFunc {
	limit := strconv.Itoa(rule.Limit)
	return func(ctx *gee.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}
		rctx, cancel := context.WithTimeout(ctx.Req.Context(), rateLimitTimeout)
		d, err := limiter.Allow(rctx, rule, ClientIP(ctx.Req))
		cancel()
		if err != nil {
			slog.Warn("rate limit check failed, letting request through", "rule", rule.Name, "err", err)
			ctx.Next()
			return
		}

		ctx.SetHeader("X-RateLimit-Limit", limit)
		ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			metrics.RateLimitRejections.WithLabelValues(rule.Name).Inc()
			if d.RetryAfter > 0 {
				secs := (d.RetryAfter + time.Second - 1) / time.Second
				ctx.SetHeader("Retry-After", strconv.FormatInt(int64(secs), 10))
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}
