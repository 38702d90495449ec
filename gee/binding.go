package gee

import (
	"fmt"
	"net/url"
	"strconv"
)

// QueryValues 返回解析后的查询参数；同一个请求只解析一次。
func (c *Context) QueryValues() url.Values {
	if c.query == nil {
		c.query = c.Req.URL.Query()
	}
	return c.query
}

// QueryInt 读取整数参数，缺省时返回 def；不是整数时返回错误。
func (c *Context) QueryInt(key string, def int) (int, error) {
	v := c.QueryValues().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("query %s: %q is not an integer", key, v)
	}
	return n, nil
}

func (c *Context) QueryInt64(key string, def int64) (int64, error) {
	v := c.QueryValues().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("query %s: %q is not an integer", key, v)
	}
	return n, nil
}
