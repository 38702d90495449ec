package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog.local/gee"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func findAccess(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	dec := json.NewDecoder(buf)
	for {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			break
		}
		if m["msg"] == "access" {
			return m
		}
	}
	t.Fatalf("did not find access log entry")
	return nil
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	r := gee.New()
	r.Use(ReqID())
	r.GET("/id", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "%s", RequestID(ctx))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Fatalf("response X-Request-ID: got %q, want %q", got, "abc")
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "abc" {
		t.Fatalf("body: got %q, want %q", got, "abc")
	}
}

func TestRequestID_GeneratesWhenMissingOrTooLong(t *testing.T) {
	r := gee.New()
	r.Use(ReqID())
	r.GET("/id", func(ctx *gee.Context) {
		id, ok := RequestIDFromContext(ctx.Req.Context())
		if !ok {
			ctx.String(http.StatusInternalServerError, "missing")
			return
		}
		ctx.String(http.StatusOK, "%s", id)
	})

	for _, incoming := range []string{"", strings.Repeat("x", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		if incoming != "" {
			req.Header.Set("X-Request-ID", incoming)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		got := rec.Header().Get("X-Request-ID")
		if len(got) != 32 {
			t.Fatalf("generated id %q should be 32 hex chars", got)
		}
		if rec.Body.String() != got {
			t.Fatalf("context id %q differs from header %q", rec.Body.String(), got)
		}
	}
}

func TestAccessLog_EmitsJSONFields(t *testing.T) {
	buf := captureLogs(t)

	r := gee.New()
	r.Use(gee.Recovery(), ReqID(), AccessLog())
	r.GET("/Record/:id", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/Record/42", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	m := findAccess(t, buf)
	want := map[string]any{
		"request_id": "abc",
		"method":     http.MethodGet,
		"path":       "/Record/42",
		"route":      "/Record/:id",
		"level":      "INFO",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: got %v, want %v", k, m[k], v)
		}
	}
}

func TestAccessLog_LevelFollowsStatus(t *testing.T) {
	buf := captureLogs(t)

	r := gee.New()
	r.Use(ReqID(), AccessLog())
	r.GET("/missing", func(ctx *gee.Context) {
		ctx.AbortWithError(http.StatusNotFound, "nope")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if m := findAccess(t, buf); m["level"] != "WARN" {
		t.Errorf("404 logged at %v, want WARN", m["level"])
	}
}

func TestRecovery_Returns500AndLogs(t *testing.T) {
	buf := captureLogs(t)

	r := gee.New()
	r.Use(gee.Recovery(), ReqID())
	r.GET("/panic", func(ctx *gee.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("Content-Type: got %q, want contains %q", ct, "application/json")
	}
	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Fatalf("log does not contain request_id: raw=%q", buf.String())
	}
}
