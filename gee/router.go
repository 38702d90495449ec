package gee

import (
	"net/http"
	"slices"
	"sort"
	"strings"
)

type HandlerFunc func(*Context)

// router 按 method 各维护一棵前缀树；handlers 的 key 形如 "GET-/short/:id"。
type router struct {
	roots    map[string]*node
	handlers map[string][]HandlerFunc
}

func newRouter() *router {
	return &router{
		roots:    make(map[string]*node),
		handlers: make(map[string][]HandlerFunc),
	}
}

func routeKey(method, pattern string) string {
	return method + "-" + pattern
}

func parsePattern(pattern string) []string {
	parts := make([]string, 0, strings.Count(pattern, "/"))
	for _, item := range strings.Split(pattern, "/") {
		if item == "" {
			continue
		}
		parts = append(parts, item)
		if item[0] == '*' {
			break
		}
	}
	return parts
}

func (r *router) addRoute(method string, pattern string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: addRoute requires at least one handler")
	}
	root, ok := r.roots[method]
	if !ok {
		root = &node{}
		r.roots[method] = root
	}
	root.insert(pattern, parsePattern(pattern), 0)
	r.handlers[routeKey(method, pattern)] = append([]HandlerFunc(nil), handlers...)
}

func (r *router) lookup(method string, path string) (*node, map[string]string) {
	root, ok := r.roots[method]
	if !ok {
		return nil, nil
	}
	searchParts := parsePattern(path)
	n := root.search(searchParts, 0)
	if n == nil {
		return nil, nil
	}
	params := make(map[string]string)
	for i, part := range parsePattern(n.pattern) {
		switch {
		case part[0] == ':':
			params[part[1:]] = searchParts[i]
		case part[0] == '*':
			if len(part) > 1 {
				params[part[1:]] = strings.Join(searchParts[i:], "/")
			}
			return n, params
		}
	}
	return n, params
}

// getRoute 查找路由；没有注册 HEAD 时 HEAD 请求交给 GET 路由处理，
// 响应体由 net/http 丢弃。返回实际使用的 method。
func (r *router) getRoute(method string, path string) (*node, map[string]string, string) {
	if n, params := r.lookup(method, path); n != nil {
		return n, params, method
	}
	if method == http.MethodHead {
		if n, params := r.lookup(http.MethodGet, path); n != nil {
			return n, params, http.MethodGet
		}
	}
	return nil, nil, method
}

func (r *router) handle(c *Context) {
	n, params, method := r.getRoute(c.Method, c.Path)
	switch {
	case n != nil:
		c.Params = params
		c.RoutePattern = n.pattern
		c.handlers = append(c.handlers, r.handlers[routeKey(method, n.pattern)]...)
	default:
		if allow := r.AllowedMethod(c.Path); len(allow) > 0 {
			c.SetHeader("Allow", strings.Join(allow, ","))
			c.handlers = append(c.handlers, c.engine.noMethod...)
		} else {
			c.handlers = append(c.handlers, c.engine.noRoute...)
		}
	}
	c.Next()
}

// AllowedMethod 列出 path 能匹配的 method，用于 405 的 Allow 头。
func (r *router) AllowedMethod(path string) (allow []string) {
	for method := range r.roots {
		if n, _ := r.lookup(method, path); n != nil {
			allow = append(allow, method)
		}
	}
	if len(allow) > 0 && slices.Contains(allow, http.MethodGet) && !slices.Contains(allow, http.MethodHead) {
		allow = append(allow, http.MethodHead)
	}
	sort.Strings(allow)
	return allow
}

// routes 返回 "METHOD pattern" 列表，按字母序。
func (r *router) routes() []string {
	var out []string
	for method, root := range r.roots {
		root.walk(func(pattern string) {
			out = append(out, method+" "+pattern)
		})
	}
	sort.Strings(out)
	return out
}
