package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog.local/internal/platform/metrics"
	"github.com/redis/go-redis/v9"
)

// Redis 里的负缓存哨兵值；不要用 ""，否则"未命中"和"命中空值"无法区分。
const notFoundSentinel = "__nil__"

const keyPrefix = "short:"

// Result 是一次缓存查询的结果。
type Result int

const (
	Miss Result = iota
	Hit
	HitNotFound
)

// URLs 两级缓存：L1 ristretto（可选）+ L2 Redis。
type URLs struct {
	client   *redis.Client
	local    *Local
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewURLs(client *redis.Client, local *Local) *URLs {
	return &URLs{
		client:   client,
		local:    local,
		ttl:      time.Hour,
		emptyTTL: 30 * time.Second,
	}
}

func (c *URLs) Get(ctx context.Context, id string) (string, Result, error) {
	// L1
	if c.local != nil {
		switch url, res := c.local.Lookup(id); res {
		case HitNotFound:
			metrics.CacheOperations.WithLabelValues("l1", "hit_negative").Inc()
			return "", HitNotFound, nil
		case Hit:
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return url, Hit, nil
		}
	}

	// L2
	res, err := c.client.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return "", Miss, nil
	}
	if err != nil {
		return "", Miss, err
	}

	// 回填本地缓存
	if res == notFoundSentinel {
		metrics.CacheOperations.WithLabelValues("l2", "hit_negative").Inc()
		if c.local != nil {
			c.local.SetNotFound(id)
		}
		return "", HitNotFound, nil
	}
	metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
	if c.local != nil {
		c.local.Set(id, res)
	}
	return res, Hit, nil
}

func (c *URLs) Set(ctx context.Context, id, url string) error {
	if c.local != nil {
		c.local.Set(id, url)
	}
	return c.client.Set(ctx, keyPrefix+id, url, c.ttl).Err()
}

func (c *URLs) Delete(ctx context.Context, id string) error {
	if c.local != nil {
		c.local.Del(id)
	}
	return c.client.Del(ctx, keyPrefix+id).Err()
}

// SetNotFound 写负缓存，防止不存在的 id 反复打到数据库（缓存穿透）。
func (c *URLs) SetNotFound(ctx context.Context, id string) error {
	if c.local != nil {
		c.local.SetNotFound(id)
	}
	return c.client.Set(ctx, keyPrefix+id, notFoundSentinel, c.emptyTTL).Err()
}

func (c *URLs) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("本地缓存已关闭")
	}
}
