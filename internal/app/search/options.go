// Package search holds per-backend search configuration (Options) and the
// per-request search state built from it (Params).
package search

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrUnknownBackend = errors.New("unknown search backend")

//go:embed searches.yaml
var defaultSearches []byte

// Options is the static configuration of one search backend.
type Options struct {
	Name           string            `yaml:"-"`
	BasicHandlers  map[string]string `yaml:"basic_handlers"` // handler -> label key
	DefaultHandler string            `yaml:"default_handler"`
	Sorting        map[string]string `yaml:"sorting"` // sort value -> label key
	DefaultSort    string            `yaml:"default_sort"`
	LimitOptions   []int             `yaml:"limit_options"`
	DefaultLimit   int               `yaml:"default_limit"`
	Highlighting   bool              `yaml:"highlighting"`
}

// Choice is one entry of a select menu.
type Choice struct {
	Value string
	Label string
}

// SortChoices returns the sort options ordered by value, default sort first.
func (o *Options) SortChoices() []Choice {
	return choices(o.Sorting, o.DefaultSort)
}

// HandlerChoices returns the search handlers, default handler first.
func (o *Options) HandlerChoices() []Choice {
	return choices(o.BasicHandlers, o.DefaultHandler)
}

func (o *Options) HasHandler(h string) bool {
	_, ok := o.BasicHandlers[h]
	return ok
}

func (o *Options) HasSort(s string) bool {
	_, ok := o.Sorting[s]
	return ok
}

func (o *Options) HasLimit(l int) bool {
	return slices.Contains(o.LimitOptions, l)
}

func choices(m map[string]string, first string) []Choice {
	out := make([]Choice, 0, len(m))
	for v, label := range m {
		out = append(out, Choice{Value: v, Label: label})
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Value == first) != (out[j].Value == first) {
			return out[i].Value == first
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func (o *Options) validate() error {
	if len(o.BasicHandlers) == 0 {
		return errors.New("no basic_handlers")
	}
	if !o.HasHandler(o.DefaultHandler) {
		return fmt.Errorf("default_handler %q not in basic_handlers", o.DefaultHandler)
	}
	if len(o.Sorting) > 0 && !o.HasSort(o.DefaultSort) {
		return fmt.Errorf("default_sort %q not in sorting", o.DefaultSort)
	}
	if o.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", o.DefaultLimit)
	}
	if len(o.LimitOptions) > 0 && !o.HasLimit(o.DefaultLimit) {
		return fmt.Errorf("default_limit %d not in limit_options", o.DefaultLimit)
	}
	return nil
}

// OptionsRegistry hands out the shared Options of each backend.
type OptionsRegistry struct {
	backends map[string]*Options
}

// ParseOptions reads a searches.yaml document.
func ParseOptions(data []byte) (*OptionsRegistry, error) {
	var raw map[string]*Options
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse search options: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("parse search options: no backends")
	}
	for name, o := range raw {
		if o == nil {
			return nil, fmt.Errorf("search backend %s: empty options", name)
		}
		o.Name = name
		if err := o.validate(); err != nil {
			return nil, fmt.Errorf("search backend %s: %w", name, err)
		}
	}
	return &OptionsRegistry{backends: raw}, nil
}

// DefaultOptions returns the registry of the built-in searches.yaml.
func DefaultOptions() (*OptionsRegistry, error) {
	return ParseOptions(defaultSearches)
}

// LoadOptions reads path from fsys; an empty path uses the built-in file.
func LoadOptions(fsys fs.FS, path string) (*OptionsRegistry, error) {
	if path == "" {
		return DefaultOptions()
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read search options: %w", err)
	}
	return ParseOptions(data)
}

// LoadOptionsFile is LoadOptions against the OS filesystem.
func LoadOptionsFile(path string) (*OptionsRegistry, error) {
	if path == "" {
		return DefaultOptions()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search options: %w", err)
	}
	return ParseOptions(data)
}

// Get returns the shared options of name. Callers must not modify them.
func (r *OptionsRegistry) Get(name string) (*Options, error) {
	o, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return o, nil
}

func (r *OptionsRegistry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
