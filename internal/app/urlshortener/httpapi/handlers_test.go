package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog.local/gee"
	"catalog.local/internal/app/urlshortener"
	"catalog.local/internal/app/urlshortener/repo"
	"catalog.local/internal/app/urlshortener/stats"
	"catalog.local/internal/platform/auth"
)

type fakeShortener struct {
	urls map[string]string
}

func (f fakeShortener) Shorten(_ context.Context, url string) (string, error) { return url, nil }

func (f fakeShortener) Resolve(_ context.Context, id string) (string, error) {
	if u, ok := f.urls[id]; ok {
		return u, nil
	}
	return "", urlshortener.ErrNotFound
}

type recordingCollector struct{ events []stats.ClickEvent }

func (r *recordingCollector) Collect(e stats.ClickEvent) { r.events = append(r.events, e) }
func (r *recordingCollector) Close()                     {}

type fakeAdmin struct {
	disabled   map[string]bool
	lastLimit  int
	lastCursor int64
}

func (f *fakeAdmin) FindByID(_ context.Context, id string) (*repo.Metadata, error) {
	if id != "abc" {
		return nil, urlshortener.ErrNotFound
	}
	return &repo.Metadata{ID: id, URL: "https://example.org/Record/1", Disabled: f.disabled[id]}, nil
}

func (f *fakeAdmin) Disable(_ context.Context, id string) error {
	if id != "abc" {
		return urlshortener.ErrNotFound
	}
	if f.disabled[id] {
		return repo.ErrAlreadyDisabled
	}
	f.disabled[id] = true
	return nil
}

func (f *fakeAdmin) Stats(_ context.Context, id string, limit int, cursor int64) (*repo.Stats, error) {
	f.lastLimit, f.lastCursor = limit, cursor
	if id != "abc" {
		return nil, urlshortener.ErrNotFound
	}
	return &repo.Stats{TotalClicks: 7}, nil
}

func TestRedirect(t *testing.T) {
	collector := &recordingCollector{}
	r := gee.New()
	RegisterPublicRoutes(r, fakeShortener{urls: map[string]string{"abc": "https://example.org/Record/1"}}, collector, nil)

	req := httptest.NewRequest(http.MethodGet, "/short/abc", nil)
	req.Header.Set("Referer", "https://example.org/Search/Results")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.org/Record/1" {
		t.Errorf("Location = %q", loc)
	}
	if len(collector.events) != 1 || collector.events[0].ShortID != "abc" || collector.events[0].Referer == "" {
		t.Errorf("unexpected click events: %+v", collector.events)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/short/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", w.Code)
	}
	if len(collector.events) != 1 {
		t.Error("a miss must not be recorded as a click")
	}
}

func newAdminEngine(t *testing.T) (*gee.Engine, *fakeAdmin, auth.TokenService) {
	t.Helper()
	ts, err := auth.NewHS256Service("test-secret", "catalog-web", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	a := &fakeAdmin{disabled: map[string]bool{}}
	r := gee.New()
	RegisterAdminRoutes(r.Group("/api/v1"), a, ts, nil)
	return r, a, ts
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRequiresAdminRole(t *testing.T) {
	r, _, ts := newAdminEngine(t)
	userToken, _ := ts.Sign("7", "user")

	if w := do(r, http.MethodGet, "/api/v1/admin/shortlinks/abc", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/admin/shortlinks/abc", userToken); w.Code != http.StatusForbidden {
		t.Errorf("user token: status = %d, want 403", w.Code)
	}
}

func TestAdminFindAndDisable(t *testing.T) {
	r, _, ts := newAdminEngine(t)
	token, _ := ts.Sign("1", "admin")

	w := do(r, http.MethodGet, "/api/v1/admin/shortlinks/abc", token)
	if w.Code != http.StatusOK {
		t.Fatalf("find: status = %d, body %s", w.Code, w.Body.String())
	}
	var md repo.Metadata
	if err := json.Unmarshal(w.Body.Bytes(), &md); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md.URL != "https://example.org/Record/1" || md.Disabled {
		t.Errorf("unexpected metadata %+v", md)
	}

	if w := do(r, http.MethodPost, "/api/v1/admin/shortlinks/abc/disable", token); w.Code != http.StatusOK {
		t.Errorf("disable: status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/admin/shortlinks/abc/disable", token); w.Code != http.StatusConflict {
		t.Errorf("disable twice: status = %d, want 409", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/admin/shortlinks/zzz/disable", token); w.Code != http.StatusNotFound {
		t.Errorf("disable unknown: status = %d, want 404", w.Code)
	}
}

func TestAdminStatsPaging(t *testing.T) {
	r, a, ts := newAdminEngine(t)
	token, _ := ts.Sign("1", "admin")

	if w := do(r, http.MethodGet, "/api/v1/admin/shortlinks/abc/stats", token); w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", w.Code)
	}
	if a.lastLimit != defaultStatsLimit || a.lastCursor != 0 {
		t.Errorf("defaults: limit=%d cursor=%d", a.lastLimit, a.lastCursor)
	}

	do(r, http.MethodGet, "/api/v1/admin/shortlinks/abc/stats?limit=500&cursor=42", token)
	if a.lastLimit != maxStatsLimit || a.lastCursor != 42 {
		t.Errorf("clamped: limit=%d cursor=%d", a.lastLimit, a.lastCursor)
	}

	for _, q := range []string{"limit=0", "limit=x", "cursor=-1"} {
		if w := do(r, http.MethodGet, "/api/v1/admin/shortlinks/abc/stats?"+q, token); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
	if w := do(r, http.MethodGet, "/api/v1/admin/shortlinks/zzz/stats", token); w.Code != http.StatusNotFound {
		t.Errorf("unknown: status = %d, want 404", w.Code)
	}
}
