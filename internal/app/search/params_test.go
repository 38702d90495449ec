package search

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func solrParams(t *testing.T) (*ParamsRegistry, *Options) {
	t.Helper()
	opts, err := DefaultOptions()
	if err != nil {
		t.Fatal(err)
	}
	o, _ := opts.Get("Solr")
	return NewParamsRegistry(opts), o
}

func TestParamsRegistryFreshInstances(t *testing.T) {
	reg, o := solrParams(t)
	a, err := reg.Get("Solr")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := reg.Get("Solr")
	if a == b {
		t.Fatal("each Get should return new params")
	}
	a.Query = "changed"
	if b.Query != "" {
		t.Error("params should not share state")
	}
	if a.Options() != o || b.Options() != o {
		t.Error("params should point at the shared options")
	}
	if _, err := reg.Get("Nope"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestInitFromRequest(t *testing.T) {
	reg, _ := solrParams(t)
	cases := []struct {
		name  string
		query string
		want  Params
	}{
		{
			name:  "defaults",
			query: "",
			want:  Params{Handler: "AllFields", Page: 1, Limit: 20, Sort: "relevance"},
		},
		{
			name:  "all values",
			query: "lookfor=+history+&type=Title&page=3&limit=40&sort=year&filter[]=format:Book&filter[]=+",
			want:  Params{Query: "history", Handler: "Title", Page: 3, Limit: 40, Sort: "year", Filters: []string{"format:Book"}},
		},
		{
			name:  "values the backend does not offer",
			query: "type=Nope&page=-2&limit=33&sort=random",
			want:  Params{Handler: "AllFields", Page: 1, Limit: 20, Sort: "relevance"},
		},
		{
			name:  "page capped",
			query: "page=999999999",
			want:  Params{Handler: "AllFields", Page: maxPage, Limit: 20, Sort: "relevance"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := reg.Get("Solr")
			q, err := url.ParseQuery(tc.query)
			if err != nil {
				t.Fatal(err)
			}
			p.InitFromRequest(q)
			if diff := cmp.Diff(tc.want, *p, cmpopts.IgnoreUnexported(Params{}), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("params (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParamsOffsetAndEncode(t *testing.T) {
	reg, _ := solrParams(t)
	p, _ := reg.Get("Solr")
	p.InitFromRequest(url.Values{"lookfor": {"go"}, "page": {"2"}, "limit": {"40"}})
	if got := p.Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
	want := "limit=40&lookfor=go&page=2&sort=relevance&type=AllFields"
	if got := p.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}
