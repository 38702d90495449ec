package viewhelper

import (
	"context"

	"catalog.local/internal/app/content"
	"catalog.local/internal/app/search"
)

// DefaultSearchClass is the backend name the registry lookups use when the
// template passes none.
const DefaultSearchClass = "Solr"

type ContentLoader interface {
	LoadByISBN(ctx context.Context, isbn string) (content.Results, error)
}

type URLShortener interface {
	Shorten(ctx context.Context, url string) (string, error)
}

type OptionsRegistry interface {
	Get(name string) (*search.Options, error)
}

type ParamsRegistry interface {
	Get(name string) (*search.Params, error)
}

type NonceGenerator interface {
	Nonce() (string, error)
}

// ContentLoaderHelper backs authorNotes, summaries and the other ISBN keyed
// content helpers.
type ContentLoaderHelper struct {
	loader ContentLoader
}

func NewContentLoader(loader ContentLoader) *ContentLoaderHelper {
	return &ContentLoaderHelper{loader: loader}
}

func (h *ContentLoaderHelper) Invoke(ctx context.Context, isbn string) (content.Results, error) {
	return h.loader.LoadByISBN(ctx, isbn)
}

type ShortenURL struct {
	shortener URLShortener
}

func NewShortenURL(s URLShortener) *ShortenURL {
	return &ShortenURL{shortener: s}
}

func (h *ShortenURL) Invoke(ctx context.Context, url string) (string, error) {
	return h.shortener.Shorten(ctx, url)
}

type SearchOptions struct {
	registry OptionsRegistry
}

func NewSearchOptions(r OptionsRegistry) *SearchOptions {
	return &SearchOptions{registry: r}
}

// Invoke returns the options of the named backend, DefaultSearchClass when
// name is empty.
func (h *SearchOptions) Invoke(name string) (*search.Options, error) {
	if name == "" {
		name = DefaultSearchClass
	}
	return h.registry.Get(name)
}

type SearchParams struct {
	registry ParamsRegistry
}

func NewSearchParams(r ParamsRegistry) *SearchParams {
	return &SearchParams{registry: r}
}

// Invoke returns fresh params for the named backend, DefaultSearchClass when
// name is empty.
func (h *SearchParams) Invoke(name string) (*search.Params, error) {
	if name == "" {
		name = DefaultSearchClass
	}
	return h.registry.Get(name)
}

type CSPNonce struct {
	generator NonceGenerator
}

func NewCSPNonce(g NonceGenerator) *CSPNonce {
	return &CSPNonce{generator: g}
}

func (h *CSPNonce) Invoke() (string, error) {
	return h.generator.Nonce()
}
