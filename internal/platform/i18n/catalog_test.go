package i18n

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	fsys := fstest.MapFS{
		"en.yaml": {Data: []byte("greeting: \"Hello %%name%%\"\nnumber_decimal_point: \".\"\n")},
		"de.yaml": {Data: []byte("greeting: \"Hallo %%name%%\"\nnumber_decimal_point: \",\"\n")},
		"fi.yaml": {Data: []byte("greeting: \"Hei %%name%%\"\nempty: \"\"\n")},
	}
	c, err := Load(fsys, "en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoadOrdersDefaultFirst(t *testing.T) {
	c := testCatalog(t)
	if diff := cmp.Diff([]string{"en", "de", "fi"}, c.Languages()); diff != "" {
		t.Fatalf("Languages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsUnknownDefault(t *testing.T) {
	_, err := Load(fstest.MapFS{"en.yaml": {Data: []byte("a: b\n")}}, "sv")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(fstest.MapFS{"en.yaml": {Data: []byte("- not\n- a map\n")}}, "en")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTranslate(t *testing.T) {
	c := testCatalog(t)
	cases := []struct {
		lang, key, def string
		tokens         map[string]string
		want           string
	}{
		{"de", "greeting", "", map[string]string{"name": "Ada"}, "Hallo Ada"},
		{"en", "greeting", "", map[string]string{"name": "Ada"}, "Hello Ada"},
		{"en", "number_thousands_separator", ",", nil, ","},
		{"de", "number_decimal_point", ".", nil, ","},
		{"en", "missing_key", "", nil, "missing_key"},
		{"fi", "empty", "fallback", nil, ""},
		{"xx", "greeting", "", map[string]string{"name": "Ada"}, "Hello Ada"},
	}
	for _, tc := range cases {
		got := c.Translator(tc.lang).Translate(tc.key, tc.tokens, tc.def)
		if got != tc.want {
			t.Errorf("%s/%s: got %q, want %q", tc.lang, tc.key, got, tc.want)
		}
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	c := testCatalog(t)
	cases := map[string]string{
		"":                         "en",
		"de-DE,de;q=0.9,en;q=0.8":  "de",
		"fi":                       "fi",
		"sv-SE":                    "en",
		"en-GB;q=0.5,fi-FI;q=0.9":  "fi",
		"not a header;;;q=garbage": "en",
	}
	for header, want := range cases {
		if got := c.Match(header); got != want {
			t.Errorf("Match(%q): got %q, want %q", header, got, want)
		}
	}
}

func TestBuiltinLanguages(t *testing.T) {
	c, err := Builtin("en")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	for _, code := range []string{"en", "de", "fi"} {
		if !c.Has(code) {
			t.Errorf("builtin catalog missing %q", code)
		}
	}
	if got := c.Translator("de").Translate("number_thousands_separator", nil, ","); got != "." {
		t.Fatalf("de thousands separator: got %q", got)
	}
}
