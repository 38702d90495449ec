// Package urlshortener turns long record URLs into short /short/{id} links.
package urlshortener

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("short url not found")
	ErrUnknownShortener = errors.New("unknown url shortener")
)

// Shortener 是模板 shortenUrl 和 /short/:id 跳转共用的能力。
//
// Shorten 返回可直接放进页面的完整 URL；Resolve 把短 id 还原成原始 URL。
type Shortener interface {
	Shorten(ctx context.Context, url string) (string, error)
	Resolve(ctx context.Context, id string) (string, error)
}

// None 不做缩短，原样返回；用于没有数据库的部署。
type None struct{}

func (None) Shorten(_ context.Context, url string) (string, error) {
	return url, nil
}

func (None) Resolve(_ context.Context, id string) (string, error) {
	return "", ErrNotFound
}

// ShortURL 拼出对外的短链地址：{baseURL}/short/{id}
func ShortURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/short/" + id
}

// Kind 校验配置里的 URL_SHORTENER。
func Kind(name string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(name)); k {
	case "", "none":
		return "none", nil
	case "database":
		return k, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownShortener, name)
	}
}
