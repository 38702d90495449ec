package viewhelper

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
)

var (
	ErrHelperNotFound       = errors.New("view helper not found")
	ErrRequestScopeRequired = errors.New("view helper needs a request")
)

// Scope is the request a request-scoped helper is built for.
type Scope struct {
	Writer  http.ResponseWriter
	Request *http.Request
}

// Factory builds the template function of a request-scoped helper.
type Factory func(s Scope) (any, error)

// Manager is the registry of template helpers. Registration is not
// synchronised: register everything before serving requests.
type Manager struct {
	shared    map[string]any
	factories map[string]Factory
	aliases   map[string]string
}

func NewManager() *Manager {
	return &Manager{
		shared:    make(map[string]any),
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
	}
}

// Set registers a helper whose template function lives as long as the
// application.
func (m *Manager) Set(name string, fn any) {
	delete(m.factories, name)
	m.shared[name] = fn
}

// SetFactory registers a helper built once per request.
func (m *Manager) SetFactory(name string, f Factory) {
	delete(m.shared, name)
	m.factories[name] = f
}

// Alias makes alias resolve to target.
func (m *Manager) Alias(alias, target string) {
	m.aliases[alias] = target
}

func (m *Manager) resolve(name string) string {
	if target, ok := m.aliases[name]; ok {
		return target
	}
	return name
}

func (m *Manager) Has(name string) bool {
	name = m.resolve(name)
	_, shared := m.shared[name]
	_, scoped := m.factories[name]
	return shared || scoped
}

// Names returns every registered name and alias, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.shared)+len(m.factories)+len(m.aliases))
	for name := range m.shared {
		names = append(names, name)
	}
	for name := range m.factories {
		names = append(names, name)
	}
	for alias := range m.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// Get returns the template function registered under name (or alias).
// Request-scoped helpers are built for s.
func (m *Manager) Get(name string, s Scope) (any, error) {
	target := m.resolve(name)
	if fn, ok := m.shared[target]; ok {
		return fn, nil
	}
	if f, ok := m.factories[target]; ok {
		if s.Request == nil {
			return nil, fmt.Errorf("%w: %s", ErrRequestScopeRequired, name)
		}
		return f(s)
	}
	return nil, fmt.Errorf("%w: %s", ErrHelperNotFound, name)
}

// FuncMap returns the parse-time function map. Request-scoped helpers are
// represented by placeholders that fail if a template runs unbound.
func (m *Manager) FuncMap() template.FuncMap {
	funcs := make(template.FuncMap, len(m.shared)+len(m.factories)+len(m.aliases))
	for name, fn := range m.shared {
		funcs[name] = fn
	}
	for name := range m.factories {
		funcs[name] = unbound(name)
	}
	for alias, target := range m.aliases {
		if fn, ok := funcs[target]; ok {
			funcs[alias] = fn
		}
	}
	return funcs
}

// Bind builds every request-scoped helper for s. The result only holds the
// request-scoped names; apply it on top of FuncMap.
func (m *Manager) Bind(s Scope) (template.FuncMap, error) {
	funcs := make(template.FuncMap, len(m.factories))
	for name, f := range m.factories {
		fn, err := f(s)
		if err != nil {
			return nil, fmt.Errorf("bind view helper %s: %w", name, err)
		}
		funcs[name] = fn
	}
	for alias, target := range m.aliases {
		if fn, ok := funcs[target]; ok {
			funcs[alias] = fn
		}
	}
	return funcs, nil
}

func unbound(name string) func(...any) (any, error) {
	return func(...any) (any, error) {
		return nil, fmt.Errorf("%w: %s", ErrRequestScopeRequired, name)
	}
}
