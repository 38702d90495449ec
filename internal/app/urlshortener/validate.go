package urlshortener

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL 表示传入的长链接不能被缩短。
var ErrInvalidURL = errors.New("invalid url")
var ErrInvalidID = errors.New("invalid short id")

// ValidateURL 只接受带 host 的 http/https 绝对地址。
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return ErrInvalidURL
	}
	return nil
}

var idRe = regexp.MustCompile(`^[A-Za-z0-9]{3,32}$`)

// ValidateID 在查缓存/数据库之前挡掉明显不合法的 id。
func ValidateID(id string) error {
	if !idRe.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}
