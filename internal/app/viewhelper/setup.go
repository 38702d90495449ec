package viewhelper

import (
	"context"
	"fmt"
	"strconv"

	"catalog.local/internal/app/content"
	"catalog.local/internal/app/search"
	"catalog.local/internal/platform/metrics"
)

// Deps carries configuration values and collaborators for Setup. The
// per-request collaborators are supplied as constructors over the Scope.
type Deps struct {
	AddThisKey        string
	SyndeticsPlus     bool
	KeepAliveInterval int

	ILS           ILSConnection
	AuthorNotes   ContentLoader
	Summaries     ContentLoader
	Shortener     URLShortener
	SearchOptions OptionsRegistry
	SearchParams  ParamsRegistry

	Cookies    func(s Scope) CookieManager
	Nonce      func(s Scope) (NonceGenerator, error)
	Translator func(s Scope) Translator
}

// Setup registers the standard helpers under their template names.
func Setup(deps Deps) *Manager {
	m := NewManager()

	m.Set("addThis", NewAddThis(deps.AddThisKey).Invoke)
	m.Set("syndeticsPlus", NewSyndeticsPlus(deps.SyndeticsPlus).Invoke)
	m.Set("keepAlive", NewKeepAlive(deps.KeepAliveInterval).Invoke)
	m.Set("ils", NewIls(deps.ILS).Invoke)

	options := NewSearchOptions(deps.SearchOptions)
	m.Set("searchOptions", func(name ...string) (*search.Options, error) {
		n, err := optionalName("searchOptions", name)
		if err != nil {
			return nil, err
		}
		opts, err := options.Invoke(n)
		observe("searchOptions", err)
		return opts, err
	})
	params := NewSearchParams(deps.SearchParams)
	m.Set("searchParams", func(name ...string) (*search.Params, error) {
		n, err := optionalName("searchParams", name)
		if err != nil {
			return nil, err
		}
		p, err := params.Invoke(n)
		observe("searchParams", err)
		return p, err
	})

	m.SetFactory("cookieManager", func(s Scope) (any, error) {
		return NewCookies(deps.Cookies(s)).Invoke, nil
	})
	m.SetFactory("authorNotes", contentFactory("authorNotes", deps.AuthorNotes))
	m.SetFactory("summaries", contentFactory("summaries", deps.Summaries))
	m.SetFactory("shortenUrl", func(s Scope) (any, error) {
		h := NewShortenURL(deps.Shortener)
		ctx := requestContext(s)
		return func(url string) (string, error) {
			short, err := h.Invoke(ctx, url)
			observe("shortenUrl", err)
			return short, err
		}, nil
	})
	m.SetFactory("cspNonce", func(s Scope) (any, error) {
		g, err := deps.Nonce(s)
		if err != nil {
			return nil, err
		}
		h := NewCSPNonce(g)
		return func() (string, error) {
			nonce, err := h.Invoke()
			observe("cspNonce", err)
			return nonce, err
		}, nil
	})
	m.SetFactory("localizedNumber", func(s Scope) (any, error) {
		h := NewLocalizedNumber(deps.Translator(s))
		return func(number any, decimals ...int) (string, error) {
			f, err := toFloat(number)
			if err != nil {
				return "", err
			}
			d := 0
			if len(decimals) > 0 {
				d = decimals[0]
			}
			return h.Invoke(f, d), nil
		}, nil
	})
	m.SetFactory("translate", func(s Scope) (any, error) {
		t := deps.Translator(s)
		return func(key string, pairs ...any) (string, error) {
			if len(pairs)%2 != 0 {
				return "", fmt.Errorf("translate %q: tokens must be name/value pairs", key)
			}
			var tokens map[string]string
			if len(pairs) > 0 {
				tokens = make(map[string]string, len(pairs)/2)
				for i := 0; i < len(pairs); i += 2 {
					tokens[fmt.Sprint(pairs[i])] = fmt.Sprint(pairs[i+1])
				}
			}
			return t.Translate(key, tokens, ""), nil
		}, nil
	})

	m.Alias("authornotes", "authorNotes")
	m.Alias("syndeticsplus", "syndeticsPlus")
	m.Alias("transEsc", "translate")

	return m
}

func contentFactory(name string, loader ContentLoader) Factory {
	return func(s Scope) (any, error) {
		h := NewContentLoader(loader)
		ctx := requestContext(s)
		return func(isbn string) (content.Results, error) {
			res, err := h.Invoke(ctx, isbn)
			observe(name, err)
			return res, err
		}, nil
	}
}

// requestContext is used by helpers when the scope carries no request.
func requestContext(s Scope) context.Context {
	if s.Request == nil {
		return context.Background()
	}
	return s.Request.Context()
}

func optionalName(helper string, names []string) (string, error) {
	switch len(names) {
	case 0:
		return DefaultSearchClass, nil
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("%s takes at most one backend name, got %d", helper, len(names))
	}
}

func observe(helper string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ViewHelperCalls.WithLabelValues(helper, outcome).Inc()
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("localizedNumber: unsupported number type %T", v)
	}
}
