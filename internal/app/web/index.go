package web

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"catalog.local/internal/app/search"
	"gopkg.in/yaml.v3"
)

//go:embed records.yaml
var builtinRecords []byte

// Record is one bibliographic record of the demo index.
type Record struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Author   string   `yaml:"author"`
	Year     int      `yaml:"year"`
	ISBN     string   `yaml:"isbn"`
	Subjects []string `yaml:"subjects"`
}

// Index is a small in-memory record set standing in for a search backend.
// Records keep their file order, which is the relevance order.
type Index struct {
	records []Record
}

func ParseIndex(data []byte) (*Index, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
	}
	return &Index{records: records}, nil
}

func BuiltinIndex() (*Index, error) {
	return ParseIndex(builtinRecords)
}

func (ix *Index) Len() int { return len(ix.records) }

// Search returns the number of matching records and the page p asks for.
func (ix *Index) Search(p *search.Params) (int, []Record) {
	terms := strings.Fields(strings.ToLower(p.Query))
	var hits []Record
	for _, r := range ix.records {
		if matches(r, p.Handler, terms) && passesFilters(r, p.Filters) {
			hits = append(hits, r)
		}
	}
	sortRecords(hits, p.Sort)

	total := len(hits)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	return total, hits[start:end]
}

func fields(r Record, handler string) []string {
	switch handler {
	case "Title", "MainHeading":
		return []string{r.Title}
	case "Author":
		return []string{r.Author}
	case "Subject":
		return r.Subjects
	default:
		return append([]string{r.Title, r.Author, r.ISBN}, r.Subjects...)
	}
}

// matches requires every term to appear in one of the handler's fields.
func matches(r Record, handler string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join(fields(r, handler), " "))
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

// passesFilters applies field:value filters (subject, year, author). Unknown
// fields are ignored.
func passesFilters(r Record, filters []string) bool {
	for _, f := range filters {
		field, value, ok := strings.Cut(f, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(field) {
		case "subject":
			found := false
			for _, s := range r.Subjects {
				if strings.EqualFold(s, value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "year":
			if strconv.Itoa(r.Year) != value {
				return false
			}
		case "author":
			if !strings.EqualFold(r.Author, value) {
				return false
			}
		}
	}
	return true
}

func sortRecords(records []Record, by string) {
	var less func(a, b Record) bool
	switch by {
	case "year":
		less = func(a, b Record) bool { return a.Year > b.Year }
	case "year asc":
		less = func(a, b Record) bool { return a.Year < b.Year }
	case "author":
		less = func(a, b Record) bool { return strings.ToLower(a.Author) < strings.ToLower(b.Author) }
	case "title", "heading":
		less = func(a, b Record) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	default:
		return
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
