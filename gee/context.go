package gee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
)

type H map[string]any

// abortIndex must be large enough to exceed any real handler index, but not so
// large that nested Next() loops can overflow when multiple stack frames
// increment c.index after Abort().
const abortIndex = math.MaxInt32

type Context struct {
	Writer *ResponseWriter
	Req    *http.Request
	//请求消息
	Path         string
	Method       string
	Params       map[string]string
	RoutePattern string
	query        url.Values
	//中间件
	handlers []HandlerFunc
	index    int
	//engine
	engine *Engine
}

func (c *Context) Param(key string) string {
	return c.Params[key]
}

func newContext(w http.ResponseWriter, req *http.Request) *Context {
	return &Context{
		Writer: NewResponseWriter(w),
		Req:    req,
		Path:   req.URL.Path,
		Method: req.Method,
		index:  -1,
	}
}

func (c *Context) Next() {
	c.index++
	s := len(c.handlers)
	for ; c.index < s && !c.IsAborted(); c.index++ {
		c.handlers[c.index](c)
	}
}

// PostForm 取表单字段（也会读 URL 查询参数，表单优先）
func (c *Context) PostForm(key string) string {
	return c.Req.FormValue(key)
}

func (c *Context) Query(key string) string {
	return c.QueryValues().Get(key)
}

func (c *Context) Status(code int) {
	c.Writer.WriteHeader(code)
}

func (c *Context) SetHeader(key string, value string) {
	c.Writer.SetHeader(key, value)
}

func (c *Context) String(code int, format string, values ...any) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	fmt.Fprintf(c.Writer, format, values...)
}

// JSON 直接编码到响应流；编码失败时头已经写出，只能记日志
func (c *Context) JSON(code int, obj any) {
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	if err := json.NewEncoder(c.Writer).Encode(obj); err != nil {
		slog.Error("encode json response failed", "request_id", c.requestID(), "err", err)
	}
}

// HTML 先渲染到缓冲区，模板出错时不会留下半个页面和 200 状态码。
func (c *Context) HTML(code int, name string, data any) {
	if c.engine == nil || c.engine.htmlTemplates == nil {
		c.AbortWithError(http.StatusInternalServerError, "templates not loaded")
		return
	}
	t, err := c.engine.templatesFor(c)
	if err != nil {
		slog.Error("bind template funcs failed", "request_id", c.requestID(), "err", err)
		c.AbortWithError(http.StatusInternalServerError, "template error")
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("render template failed", "request_id", c.requestID(), "template", name, "err", err)
		c.AbortWithError(http.StatusInternalServerError, "template error")
		return
	}
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.Status(code)
	c.Writer.Write(buf.Bytes())
}

func (c *Context) Redirect(code int, location string) {
	c.SetHeader("Location", location)
	c.Status(code)
}

func (c *Context) Fail(code int, format string) {
	c.String(code, "%s", format)
	c.Abort()
}

func (c *Context) Abort() {
	c.index = abortIndex
}
func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}

func (c *Context) AbortWithStatus(code int) {
	c.Status(code)
	c.Abort()
}

func (c *Context) AbortWithStatusJSON(code int, obj any) {
	c.Abort()

	if c.Writer.Written() {
		return
	}

	bytes, err := json.Marshal(obj)
	if err != nil {
		code = http.StatusInternalServerError
		bytes = []byte(`{"code":500,"message":"Internal Server Error"}`)

	}
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	c.Writer.Write(bytes)
}

func (c *Context) AbortWithError(code int, message string) {
	errorRep := NewErrorResponse(c, code, message)
	c.AbortWithStatusJSON(code, errorRep)
}
