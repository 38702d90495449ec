package urlshortener

import (
	"context"
	"log/slog"
)

// Store 是 Database 依赖的持久化能力（repo.Shortlinks 实现）。
type Store interface {
	Create(ctx context.Context, url string) (string, error)
	Resolve(ctx context.Context, id string) (string, error)
}

// Filter 是本实例见过的 id 集合（布隆过滤器）；MightExist 为 false 只说明本实例没见过。
type Filter interface {
	Add(id string)
	MightExist(id string) bool
}

// Database 把 URL 存进数据库，返回 {baseURL}/short/{id}。
type Database struct {
	store   Store
	known   Filter
	baseURL string
}

// NewDatabase 的 known 可为 nil（不做布隆过滤）。
func NewDatabase(store Store, known Filter, baseURL string) *Database {
	return &Database{store: store, known: known, baseURL: baseURL}
}

func (d *Database) Shorten(ctx context.Context, url string) (string, error) {
	if err := ValidateURL(url); err != nil {
		return "", err
	}
	id, err := d.store.Create(ctx, url)
	if err != nil {
		return "", err
	}
	if d.known != nil {
		d.known.Add(id)
	}
	return ShortURL(d.baseURL, id), nil
}

func (d *Database) Resolve(ctx context.Context, id string) (string, error) {
	if ValidateID(id) != nil {
		return "", ErrNotFound
	}
	if _, ok := DecodeID(id); !ok {
		return "", ErrNotFound
	}
	if d.known == nil || d.known.MightExist(id) {
		return d.store.Resolve(ctx, id)
	}
	// 过滤器只记得本实例发放和预热过的 id，别的实例新建的短链要回源确认；
	// 不存在的 id 由 store 的负缓存兜住
	url, err := d.store.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	slog.Debug("short id learned from store", "id", id)
	d.known.Add(id)
	return url, nil
}
