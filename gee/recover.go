package gee

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

const internalErrorPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>500</title></head>
<body><h1>Internal Server Error</h1><p>request id: %s</p></body></html>
`

// stack 从 panic 现场开始收集调用栈
func stack(message string) string {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])

	var str strings.Builder
	str.WriteString(message + "\nTraceback:")
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		fmt.Fprintf(&str, "\n\t%s:%d", f.File, f.Line)
		if !more {
			break
		}
	}
	return str.String()
}

func wantsHTML(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

// Recovery 把 handler 里的 panic 变成 500。
// 浏览器请求拿到一个简短的 HTML 页面，其它拿到 JSON ErrorResponse。
// http.ErrAbortHandler 原样抛出，交给 net/http 断开连接。
func Recovery() HandlerFunc {
	return func(ctx *Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if e, ok := err.(error); ok && errors.Is(e, http.ErrAbortHandler) {
				panic(err)
			}
			slog.Error("panic recovered",
				"request_id", ctx.requestID(),
				"method", ctx.Method,
				"path", ctx.Path,
				"route", ctx.RoutePattern,
				"panic", err,
				"stack", stack(fmt.Sprint(err)),
			)
			if ctx.Writer.Written() {
				ctx.Abort()
				return
			}
			if wantsHTML(ctx.Req) {
				ctx.Abort()
				ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
				ctx.Status(http.StatusInternalServerError)
				fmt.Fprintf(ctx.Writer, internalErrorPage, ctx.requestID())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "Internal Server Error")
		}()
		ctx.Next()
	}
}
