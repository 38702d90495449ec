package web

import (
	"context"
	"net/http"

	"catalog.local/gee"
	"catalog.local/internal/app/viewhelper"
	"catalog.local/internal/platform/cookie"
	"catalog.local/internal/platform/i18n"
	"catalog.local/internal/platform/security"
)

// LanguageCookie holds the language the user picked.
const LanguageCookie = "language"

type session struct {
	cookies *cookie.Manager
	lang    string
}

type sessionKey struct{}

// Session builds the request's cookie manager and resolves its language:
// the language cookie when it names a loaded language, then Accept-Language,
// then the catalog default.
func Session(c *i18n.Catalog, opts cookie.Options) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		m := cookie.New(ctx.Writer, ctx.Req, opts)
		lang := m.Get(LanguageCookie)
		if !c.Has(lang) {
			lang = c.Match(ctx.Req.Header.Get("Accept-Language"))
		}
		ctx.Req = ctx.Req.WithContext(context.WithValue(ctx.Req.Context(), sessionKey{}, &session{cookies: m, lang: lang}))
		ctx.Next()
	}
}

func sessionFrom(r *http.Request) (*session, bool) {
	s, ok := r.Context().Value(sessionKey{}).(*session)
	return s, ok
}

// Language returns the language resolved by Session, "" outside of it.
func Language(r *http.Request) string {
	if s, ok := sessionFrom(r); ok {
		return s.lang
	}
	return ""
}

// ScopeCookies returns the request's cookie manager, building one from opts
// when Session did not run.
func ScopeCookies(opts cookie.Options) func(viewhelper.Scope) viewhelper.CookieManager {
	return func(s viewhelper.Scope) viewhelper.CookieManager {
		if sess, ok := sessionFrom(s.Request); ok {
			return sess.cookies
		}
		return cookie.New(s.Writer, s.Request, opts)
	}
}

// ScopeTranslator translates into the request's language.
func ScopeTranslator(c *i18n.Catalog) func(viewhelper.Scope) viewhelper.Translator {
	return func(s viewhelper.Scope) viewhelper.Translator {
		return c.Translator(Language(s.Request))
	}
}

// ScopeNonce returns the generator the CSP middleware put in the request, or
// a fresh one when the middleware is not installed.
func ScopeNonce(s viewhelper.Scope) (viewhelper.NonceGenerator, error) {
	if g, ok := security.NonceGeneratorFrom(s.Request.Context()); ok {
		return g, nil
	}
	return security.NewNonceGenerator(), nil
}
