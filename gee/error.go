package gee

// ErrorResponse 是所有 AbortWithError 的响应体。
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func NewErrorResponse(c *Context, code int, message string) ErrorResponse {
	return ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: c.requestID(),
	}
}

// requestID 优先取响应头（ReqID 中间件生成的），其次是请求头。
func (c *Context) requestID() string {
	if id := c.Writer.Header().Get("X-Request-ID"); id != "" {
		return id
	}
	return c.Req.Header.Get("X-Request-ID")
}
