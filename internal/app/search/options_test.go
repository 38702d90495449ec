package search

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultOptionsHasSolr(t *testing.T) {
	reg, err := DefaultOptions()
	if err != nil {
		t.Fatalf("DefaultOptions: %v", err)
	}
	o, err := reg.Get("Solr")
	if err != nil {
		t.Fatalf("Get(Solr): %v", err)
	}
	if o.Name != "Solr" || o.DefaultLimit != 20 || o.DefaultSort != "relevance" {
		t.Errorf("unexpected Solr options: %+v", o)
	}
	if diff := cmp.Diff([]string{"Solr", "SolrAuth"}, reg.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestOptionsRegistrySharesInstance(t *testing.T) {
	reg, err := DefaultOptions()
	if err != nil {
		t.Fatal(err)
	}
	a, _ := reg.Get("Solr")
	b, _ := reg.Get("Solr")
	if a != b {
		t.Error("options should be shared between lookups")
	}
}

func TestOptionsRegistryUnknown(t *testing.T) {
	reg, err := DefaultOptions()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Get("Summon"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	// 名称区分大小写
	if _, err := reg.Get("solr"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend for lower case name, got %v", err)
	}
}

func TestSortChoicesDefaultFirst(t *testing.T) {
	o := &Options{
		Sorting:     map[string]string{"title": "title", "relevance": "relevance", "author": "author"},
		DefaultSort: "relevance",
	}
	want := []Choice{
		{Value: "relevance", Label: "relevance"},
		{Value: "author", Label: "author"},
		{Value: "title", Label: "title"},
	}
	if diff := cmp.Diff(want, o.SortChoices()); diff != "" {
		t.Errorf("sort choices (-want +got):\n%s", diff)
	}
}

func TestParseOptionsValidation(t *testing.T) {
	cases := map[string]string{
		"empty document":    ``,
		"bad yaml":          `Solr: [`,
		"no handlers":       "Solr:\n  default_limit: 20\n",
		"bad default sort":  "Solr:\n  basic_handlers: {AllFields: AllFields}\n  default_handler: AllFields\n  sorting: {relevance: relevance}\n  default_sort: year\n  default_limit: 20\n",
		"limit not offered": "Solr:\n  basic_handlers: {AllFields: AllFields}\n  default_handler: AllFields\n  limit_options: [10]\n  default_limit: 20\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseOptions([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadOptionsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/searches.yaml": {Data: []byte("Local:\n  basic_handlers: {AllFields: AllFields}\n  default_handler: AllFields\n  default_limit: 5\n")},
	}
	reg, err := LoadOptions(fsys, "conf/searches.yaml")
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if _, err := reg.Get("Local"); err != nil {
		t.Errorf("Get(Local): %v", err)
	}
	if _, err := reg.Get("Solr"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("custom file should replace the built-in backends")
	}

	if _, err := LoadOptions(fsys, "missing.yaml"); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := LoadOptions(fsys, ""); err != nil {
		t.Errorf("empty path should fall back to built-in options: %v", err)
	}
}
