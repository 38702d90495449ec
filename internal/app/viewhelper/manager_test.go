package viewhelper

import (
	"errors"
	"html/template"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestManagerSharedAndAlias(t *testing.T) {
	m := NewManager()
	m.Set("addThis", NewAddThis("ra-1").Invoke)
	m.Alias("addthis", "addThis")

	for _, name := range []string{"addThis", "addthis"} {
		fn, err := m.Get(name, Scope{})
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if got := fn.(func() string)(); got != "ra-1" {
			t.Errorf("Get(%q)() = %q", name, got)
		}
	}
	if !m.Has("addthis") || m.Has("nope") {
		t.Error("Has gave the wrong answer")
	}
	if _, err := m.Get("nope", Scope{}); !errors.Is(err, ErrHelperNotFound) {
		t.Errorf("expected ErrHelperNotFound, got %v", err)
	}
}

func TestManagerFactoryNeedsRequest(t *testing.T) {
	m := NewManager()
	built := 0
	m.SetFactory("greeting", func(s Scope) (any, error) {
		built++
		path := s.Request.URL.Path
		return func() string { return "hello " + path }, nil
	})

	if _, err := m.Get("greeting", Scope{}); !errors.Is(err, ErrRequestScopeRequired) {
		t.Fatalf("expected ErrRequestScopeRequired, got %v", err)
	}
	fn, err := m.Get("greeting", Scope{Request: httptest.NewRequest("GET", "/a", nil)})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := fn.(func() string)(); got != "hello /a" {
		t.Errorf("got %q", got)
	}
	if built != 1 {
		t.Errorf("factory ran %d times, want 1", built)
	}
}

func TestManagerSetReplacesFactory(t *testing.T) {
	m := NewManager()
	m.SetFactory("x", func(Scope) (any, error) { return func() int { return 1 }, nil })
	m.Set("x", func() int { return 2 })
	fn, err := m.Get("x", Scope{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fn.(func() int)() != 2 {
		t.Error("Set should replace an earlier factory")
	}
	if diff := cmp.Diff([]string{"x"}, m.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestFuncMapUnboundPlaceholder(t *testing.T) {
	m := NewManager()
	m.SetFactory("who", func(s Scope) (any, error) {
		return func() string { return s.Request.Header.Get("X-User") }, nil
	})
	m.Alias("whoAlias", "who")

	tmpl := template.Must(template.New("t").Funcs(m.FuncMap()).Parse(`{{ whoAlias }}`))
	// executed templates cannot be cloned
	clone := template.Must(tmpl.Clone())

	var sb strings.Builder
	err := tmpl.Execute(&sb, nil)
	if !errors.Is(err, ErrRequestScopeRequired) {
		t.Fatalf("expected ErrRequestScopeRequired from unbound helper, got %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User", "ada")
	funcs, err := m.Bind(Scope{Request: req})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	bound := clone.Funcs(funcs)
	sb.Reset()
	if err := bound.Execute(&sb, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sb.String() != "ada" {
		t.Errorf("got %q", sb.String())
	}
}

func TestBindFactoryError(t *testing.T) {
	m := NewManager()
	boom := errors.New("no generator")
	m.SetFactory("cspNonce", func(Scope) (any, error) { return nil, boom })
	_, err := m.Bind(Scope{Request: httptest.NewRequest("GET", "/", nil)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cspNonce") {
		t.Errorf("error should name the helper: %v", err)
	}
}
