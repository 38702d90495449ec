// Package i18n loads language files and translates interface strings.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed languages/*.yaml
var builtin embed.FS

var ErrUnknownLanguage = errors.New("unknown default language")

// Catalog holds every loaded language, keyed by its code ("en", "de", ...).
type Catalog struct {
	strings  map[string]map[string]string
	codes    []string // codes[0] is the default language
	matcher  language.Matcher
	fallback string
}

// Builtin loads the language files shipped with the binary.
func Builtin(defaultLang string) (*Catalog, error) {
	sub, err := fs.Sub(builtin, "languages")
	if err != nil {
		return nil, err
	}
	return Load(sub, defaultLang)
}

// Load reads <code>.yaml files from the root of fsys. Each file is a flat
// key: value map.
func Load(fsys fs.FS, defaultLang string) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	c := &Catalog{strings: make(map[string]map[string]string, len(names))}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse language file %s: %w", name, err)
		}
		c.strings[strings.TrimSuffix(path.Base(name), ".yaml")] = table
	}
	if _, ok := c.strings[defaultLang]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, defaultLang)
	}

	c.fallback = defaultLang
	c.codes = append(c.codes, defaultLang)
	others := make([]string, 0, len(c.strings))
	for code := range c.strings {
		if code != defaultLang {
			others = append(others, code)
		}
	}
	sort.Strings(others)
	c.codes = append(c.codes, others...)

	tags := make([]language.Tag, 0, len(c.codes))
	for _, code := range c.codes {
		tags = append(tags, language.Make(code))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Languages returns the available codes, default first.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.codes...)
}

func (c *Catalog) Has(code string) bool {
	_, ok := c.strings[code]
	return ok
}

// Match picks the best available language for an Accept-Language header.
func (c *Catalog) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.fallback
	}
	return c.codes[idx]
}

// Translator returns the translator for code, or the default language's
// translator when code is not loaded.
func (c *Catalog) Translator(code string) *Translator {
	if !c.Has(code) {
		code = c.fallback
	}
	return &Translator{lang: code, strings: c.strings[code]}
}

// Translator translates keys for a single language.
type Translator struct {
	lang    string
	strings map[string]string
}

func (t *Translator) Lang() string { return t.lang }

// Translate looks key up, substitutes %%token%% placeholders and falls back
// to def (or the key itself when def is empty) for unknown keys.
func (t *Translator) Translate(key string, tokens map[string]string, def string) string {
	msg, ok := t.strings[key]
	if !ok {
		msg = def
		if msg == "" {
			msg = key
		}
	}
	for k, v := range tokens {
		msg = strings.ReplaceAll(msg, "%%"+k+"%%", v)
	}
	return msg
}
