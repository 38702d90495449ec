package gee

import "net/http"

// ResponseWriter 记录状态码和写出的字节数，供日志和指标使用。
type ResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader 只生效一次，重复调用直接忽略。
func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode, rw.wroteHeader = code, true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush 透传给底层 writer；还没写头时先按 200 写出。
func (rw *ResponseWriter) Flush() {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap 让 http.ResponseController 找到底层 writer。
func (rw *ResponseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func (rw *ResponseWriter) SetHeader(key, value string) { rw.Header().Set(key, value) }

func (rw *ResponseWriter) Status() int { return rw.statusCode }

func (rw *ResponseWriter) Size() int { return rw.size }

func (rw *ResponseWriter) Written() bool { return rw.wroteHeader }
