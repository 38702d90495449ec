package search

import (
	"net/url"
	"strconv"
	"strings"
)

// maxPage guards offset arithmetic against absurd page numbers.
const maxPage = 10000

// Params is the mutable state of one search. Each Get on the registry
// returns a new value.
type Params struct {
	options *Options

	Query   string
	Handler string
	Page    int
	Limit   int
	Sort    string
	Filters []string
}

func NewParams(o *Options) *Params {
	return &Params{
		options: o,
		Handler: o.DefaultHandler,
		Page:    1,
		Limit:   o.DefaultLimit,
		Sort:    o.DefaultSort,
	}
}

func (p *Params) Options() *Options { return p.options }

func (p *Params) Backend() string { return p.options.Name }

// Offset is the zero-based index of the first record on the current page.
func (p *Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// InitFromRequest applies lookfor, type, page, limit, sort and filter[].
// Values the backend does not offer fall back to its defaults.
func (p *Params) InitFromRequest(q url.Values) {
	p.Query = strings.TrimSpace(q.Get("lookfor"))

	if h := q.Get("type"); p.options.HasHandler(h) {
		p.Handler = h
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = min(n, maxPage)
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		if len(p.options.LimitOptions) == 0 || p.options.HasLimit(n) {
			p.Limit = n
		}
	}
	if s := q.Get("sort"); p.options.HasSort(s) {
		p.Sort = s
	}
	p.Filters = p.Filters[:0]
	for _, f := range q["filter[]"] {
		if f = strings.TrimSpace(f); f != "" {
			p.Filters = append(p.Filters, f)
		}
	}
}

// Encode returns the query string of the current state, for links that keep
// the search.
func (p *Params) Encode() string {
	v := url.Values{}
	if p.Query != "" {
		v.Set("lookfor", p.Query)
	}
	v.Set("type", p.Handler)
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Page > 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	for _, f := range p.Filters {
		v.Add("filter[]", f)
	}
	return v.Encode()
}

// ParamsRegistry builds fresh Params from an OptionsRegistry.
type ParamsRegistry struct {
	options *OptionsRegistry
}

func NewParamsRegistry(o *OptionsRegistry) *ParamsRegistry {
	return &ParamsRegistry{options: o}
}

func (r *ParamsRegistry) Get(name string) (*Params, error) {
	o, err := r.options.Get(name)
	if err != nil {
		return nil, err
	}
	return NewParams(o), nil
}
