package viewhelper

// Value returns a value fixed at construction. It backs the key, flag and
// interval helpers as well as the collaborator accessors.
type Value[T any] struct {
	v T
}

func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

func (h *Value[T]) Invoke() T {
	return h.v
}

// ILSConnection is the part of the ILS connection templates use.
type ILSConnection interface {
	DriverName() string
	CheckCapability(name string) bool
	OfflineMode() string
}

// CookieManager is the read side of the per-request cookie manager.
type CookieManager interface {
	Get(name string) string
	Path() string
	Domain() string
	Secure() bool
	SessionName() string
}

type (
	AddThis       = Value[string]
	SyndeticsPlus = Value[bool]
	KeepAlive     = Value[int]
	Ils           = Value[ILSConnection]
	Cookies       = Value[CookieManager]
)

// NewAddThis holds the AddThis API key; "" means the widget is disabled.
func NewAddThis(key string) *AddThis { return NewValue(key) }

func NewSyndeticsPlus(enabled bool) *SyndeticsPlus { return NewValue(enabled) }

// NewKeepAlive holds the session keep-alive interval in seconds, 0 = off.
func NewKeepAlive(seconds int) *KeepAlive { return NewValue(seconds) }

func NewIls(conn ILSConnection) *Ils { return NewValue(conn) }

func NewCookies(m CookieManager) *Cookies { return NewValue(m) }
