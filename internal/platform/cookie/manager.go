package cookie

import (
	"net/http"
	"time"
)

// Options mirrors the [Cookies] settings of the site configuration.
type Options struct {
	LimitByPath bool   // scope cookies to BasePath instead of "/"
	OnlySecure  bool   // mark cookies Secure
	Domain      string // empty means host-only cookies
	SessionName string
	BasePath    string // path the application is mounted under
}

// Manager reads request cookies and writes response cookies for one request.
// Values set during the request are visible to later Get calls.
type Manager struct {
	req         *http.Request
	w           http.ResponseWriter
	path        string
	domain      string
	secure      bool
	sessionName string
	pending     map[string]*string // nil value means cleared
}

func New(w http.ResponseWriter, r *http.Request, opts Options) *Manager {
	path := "/"
	if opts.LimitByPath && opts.BasePath != "" {
		path = opts.BasePath
	}
	return &Manager{
		req:         r,
		w:           w,
		path:        path,
		domain:      opts.Domain,
		secure:      opts.OnlySecure,
		sessionName: opts.SessionName,
		pending:     make(map[string]*string),
	}
}

func (m *Manager) Path() string        { return m.path }
func (m *Manager) Domain() string      { return m.domain }
func (m *Manager) Secure() bool        { return m.secure }
func (m *Manager) SessionName() string { return m.sessionName }

// Get returns the cookie value, or "" when absent.
func (m *Manager) Get(name string) string {
	if v, ok := m.pending[name]; ok {
		if v == nil {
			return ""
		}
		return *v
	}
	c, err := m.req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Set writes a cookie; a zero expires makes it a session cookie.
func (m *Manager) Set(name, value string, expires time.Time) {
	c := m.newCookie(name, value)
	if !expires.IsZero() {
		c.Expires = expires
	}
	http.SetCookie(m.w, c)
	m.pending[name] = &value
}

func (m *Manager) Clear(name string) {
	c := m.newCookie(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(m.w, c)
	m.pending[name] = nil
}

func (m *Manager) newCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
