// Package httpapi 是短链的传输层：/short/:id 跳转和管理接口。
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"catalog.local/gee"
	"catalog.local/internal/app/urlshortener"
	"catalog.local/internal/app/urlshortener/repo"
	"catalog.local/internal/app/urlshortener/stats"
	"catalog.local/internal/platform/httpmiddleware"
	"catalog.local/internal/platform/metrics"
)

// Admin 是管理接口需要的仓储能力（repo.Shortlinks 实现）。
type Admin interface {
	FindByID(ctx context.Context, id string) (*repo.Metadata, error)
	Disable(ctx context.Context, id string) error
	Stats(ctx context.Context, id string, limit int, cursor int64) (*repo.Stats, error)
}

const (
	defaultStatsLimit = 20
	maxStatsLimit     = 100
)

func NewRedirectHandler(s urlshortener.Shortener, collector stats.Collector) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Param("id")
		url, err := s.Resolve(ctx.Req.Context(), id)
		if err != nil {
			if errors.Is(err, urlshortener.ErrNotFound) {
				ctx.AbortWithError(http.StatusNotFound, "short url not found")
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "short url lookup failed")
			return
		}
		metrics.ShortlinkRedirects.Inc()

		// 异步记录点击
		collector.Collect(stats.ClickEvent{
			ShortID:   id,
			ClickedAt: time.Now(),
			IP:        httpmiddleware.ClientIP(ctx.Req),
			UserAgent: ctx.Req.UserAgent(),
			Referer:   ctx.Req.Referer(),
		})

		ctx.Redirect(http.StatusFound, url)
	}
}

func NewFindHandler(a Admin) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		md, err := a.FindByID(ctx.Req.Context(), ctx.Param("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, md)
	}
}

func NewDisableHandler(a Admin) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if err := a.Disable(ctx.Req.Context(), ctx.Param("id")); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.Status(http.StatusOK)
	}
}

// NewStatsHandler 支持 ?limit=&cursor= 游标分页。
func NewStatsHandler(a Admin) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		limit, err := ctx.QueryInt("limit", defaultStatsLimit)
		if err != nil || limit <= 0 {
			ctx.AbortWithError(http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(limit, maxStatsLimit)
		cursor, err := ctx.QueryInt64("cursor", 0)
		if err != nil || cursor < 0 {
			ctx.AbortWithError(http.StatusBadRequest, "invalid cursor")
			return
		}

		st, err := a.Stats(ctx.Req.Context(), ctx.Param("id"), limit, cursor)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, st)
	}
}

func writeError(ctx *gee.Context, err error) {
	switch {
	case errors.Is(err, urlshortener.ErrNotFound):
		ctx.AbortWithError(http.StatusNotFound, err.Error())
	case errors.Is(err, repo.ErrAlreadyDisabled):
		ctx.AbortWithError(http.StatusConflict, err.Error())
	default:
		ctx.AbortWithError(http.StatusInternalServerError, "internal error")
	}
}
