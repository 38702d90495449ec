// Package content loads ISBN keyed enrichment (summaries, author notes) from
// remote providers.
package content

import (
	"context"
	"fmt"
	"html/template"
)

// Results maps provider name to the sanitised fragments it returned.
type Results map[string][]template.HTML

type Provider interface {
	Name() string
	Load(ctx context.Context, isbn13 string) ([]template.HTML, error)
}

// Loader asks its providers in order for content about one ISBN.
type Loader struct {
	providers []Provider
}

func NewLoader(providers ...Provider) *Loader {
	return &Loader{providers: providers}
}

// LoadByISBN returns the content every provider has for isbn. An ISBN that
// does not validate yields empty results rather than an error.
func (l *Loader) LoadByISBN(ctx context.Context, isbn string) (Results, error) {
	res := Results{}
	normalized, ok := NormalizeISBN(isbn)
	if !ok {
		return res, nil
	}
	for _, p := range l.providers {
		items, err := p.Load(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("content provider %s: %w", p.Name(), err)
		}
		if len(items) > 0 {
			res[p.Name()] = items
		}
	}
	return res, nil
}
