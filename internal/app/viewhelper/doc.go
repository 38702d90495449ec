// Package viewhelper exposes application services to HTML templates.
//
// Each helper is a small adapter with a single Invoke method around one
// pre-configured dependency: a stored value (addThis, syndeticsPlus,
// keepAlive), a collaborator reference (ils, cookieManager), or a collaborator
// method it forwards to unchanged (shortenUrl, summaries, searchOptions,
// cspNonce, ...). Helpers never wrap, retry or cache; errors from
// collaborators reach the template engine as they are.
//
// Manager registers helpers by template name. Helpers that need the request
// (its context, locale, cookies or CSP nonce) are registered as factories and
// bound per request with Manager.Bind.
package viewhelper
