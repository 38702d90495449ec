package content

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog.local/internal/platform/metrics"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

type SyndeticsOptions struct {
	BaseURL   string
	ClientKey string
	Timeout   time.Duration
	// RatePerSecond throttles outbound requests shared by all loaders built
	// from the same options; 0 disables throttling.
	RatePerSecond float64
}

// SyndeticsClient is the HTTP side shared by the Syndetics content types.
type SyndeticsClient struct {
	baseURL   string
	clientKey string
	http      *http.Client
	limiter   *rate.Limiter
	policy    *bluemonday.Policy
}

func NewSyndeticsClient(opts SyndeticsOptions) *SyndeticsClient {
	c := &SyndeticsClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		clientKey: opts.ClientKey,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		policy: bluemonday.UGCPolicy(),
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return c
}

// Syndetics is one content type (summaries, author notes) of the Syndetics
// XML service.
type Syndetics struct {
	client *SyndeticsClient
	file   string // e.g. SUMMARY.XML
	field  string // MARC field element holding the text, e.g. Fld520
}

func (c *SyndeticsClient) Summaries() *Syndetics {
	return &Syndetics{client: c, file: "SUMMARY.XML", field: "Fld520"}
}

func (c *SyndeticsClient) AuthorNotes() *Syndetics {
	return &Syndetics{client: c, file: "ANOTES.XML", field: "Fld980"}
}

func (s *Syndetics) Name() string { return "syndetics" }

func (s *Syndetics) Load(ctx context.Context, isbn13 string) ([]template.HTML, error) {
	if s.client.limiter != nil {
		if err := s.client.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	endpoint := fmt.Sprintf("%s/index.aspx?isbn=%s/%s&client=%s",
		s.client.baseURL, url.QueryEscape(isbn13), s.file, url.QueryEscape(s.client.clientKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.http.Do(req)
	if err != nil {
		metrics.ContentProviderRequests.WithLabelValues(s.Name(), "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	// Syndetics answers 404 when it has nothing for the ISBN.
	if resp.StatusCode == http.StatusNotFound {
		metrics.ContentProviderRequests.WithLabelValues(s.Name(), "empty").Inc()
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ContentProviderRequests.WithLabelValues(s.Name(), "error").Inc()
		return nil, fmt.Errorf("syndetics %s: unexpected status %d", s.file, resp.StatusCode)
	}

	texts, err := extractField(io.LimitReader(resp.Body, 1<<20), s.field)
	if err != nil {
		metrics.ContentProviderRequests.WithLabelValues(s.Name(), "error").Inc()
		return nil, err
	}
	metrics.ContentProviderRequests.WithLabelValues(s.Name(), "ok").Inc()

	out := make([]template.HTML, 0, len(texts))
	for _, t := range texts {
		clean := strings.TrimSpace(s.client.policy.Sanitize(t))
		if clean != "" {
			out = append(out, template.HTML(clean))
		}
	}
	return out, nil
}

// extractField collects the text of the <a> subfields inside each <field>
// element, one entry per field occurrence. Markup inside the text arrives
// escaped and is sanitised by the caller.
func extractField(r io.Reader, field string) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		out     []string
		inField bool
		inSub   bool
		cur     strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse syndetics xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == field:
				inField = true
				cur.Reset()
			case inField && t.Name.Local == "a":
				inSub = true
				if cur.Len() > 0 {
					cur.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == field && inField:
				inField = false
				if s := strings.TrimSpace(cur.String()); s != "" {
					out = append(out, s)
				}
			case t.Name.Local == "a":
				inSub = false
			}
		case xml.CharData:
			if inSub {
				cur.Write(t)
			}
		}
	}
}
