package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalOptions 配置进程内 L1；零值字段取默认。
type LocalOptions struct {
	MaxItems    int64         // 默认 100000
	TTL         time.Duration // 默认 5m，过期后回 L2 取，别的实例改动最多滞后这么久
	NotFoundTTL time.Duration // 默认 10s
}

// Local 是 ristretto 上的 L1，按条目数限容。
type Local struct {
	cache       *ristretto.Cache
	ttl         time.Duration
	notFoundTTL time.Duration
}

// entry 区分"命中"和"命中负缓存"，不靠哨兵字符串。
type entry struct {
	url      string
	notFound bool
}

func NewLocal(opts LocalOptions) (*Local, error) {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 100_000
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.NotFoundTTL <= 0 {
		opts.NotFoundTTL = 10 * time.Second
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: opts.MaxItems * 10,
		// 每条 cost 记 1，MaxCost 即条目上限；不关掉 internal cost 的话每条会多算几十字节
		MaxCost:            opts.MaxItems,
		IgnoreInternalCost: true,
		BufferItems:        64,
	})
	if err != nil {
		return nil, err
	}
	return &Local{cache: c, ttl: opts.TTL, notFoundTTL: opts.NotFoundTTL}, nil
}

// Lookup 返回 Miss、Hit（带 url）或 HitNotFound。
func (l *Local) Lookup(id string) (string, Result) {
	v, ok := l.cache.Get(id)
	if !ok {
		return "", Miss
	}
	e := v.(entry)
	if e.notFound {
		return "", HitNotFound
	}
	return e.url, Hit
}

func (l *Local) Set(id, url string) {
	l.cache.SetWithTTL(id, entry{url: url}, 1, l.ttl)
}

func (l *Local) SetNotFound(id string) {
	l.cache.SetWithTTL(id, entry{notFound: true}, 1, l.notFoundTTL)
}

func (l *Local) Del(id string) {
	l.cache.Del(id)
}

// Wait 阻塞到缓冲的写入生效。
func (l *Local) Wait() {
	l.cache.Wait()
}

func (l *Local) Close() {
	l.cache.Close()
}
