package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"catalog.local/gee"
)

const requestIDHeader = "X-Request-ID"

// 过长的外部 id 直接丢弃重新生成，避免日志被塞入任意大小的内容
const maxRequestIDLen = 128

type requestIDKey struct{}

// ReqID 沿用上游的 X-Request-ID，没有就生成一个；同时写进请求 context 和响应头。
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Req.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = GenerateReqID()
			if id == "" {
				id = strconv.FormatInt(time.Now().UnixNano(), 10)
			}
			ctx.Req.Header.Set(requestIDHeader, id)
		}
		ctx.Req = ctx.Req.WithContext(context.WithValue(ctx.Req.Context(), requestIDKey{}, id))
		ctx.SetHeader(requestIDHeader, id)

		ctx.Next()
	}
}

// RequestID 返回当前请求的 id；没经过 ReqID 时退回请求头。
func RequestID(ctx *gee.Context) string {
	if id, ok := RequestIDFromContext(ctx.Req.Context()); ok {
		return id
	}
	return ctx.Req.Header.Get(requestIDHeader)
}

func RequestIDFromContext(c context.Context) (string, bool) {
	id, ok := c.Value(requestIDKey{}).(string)
	return id, ok
}

func GenerateReqID() string {
	src := make([]byte, 16)
	if _, err := rand.Read(src); err != nil {
		return ""
	}

	return hex.EncodeToString(src) // 32 个十六进制字符
}
