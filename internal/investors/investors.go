package investors

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DMStatus describes whether an investor accepts direct messages.
type DMStatus string

const (
	DMOpen    DMStatus = "open"
	DMClosed  DMStatus = "closed"
	DMUnknown DMStatus = "unknown"
)

const profileURLPrefix = "https://x.com/"

// Record is a single investor profile as stored in the external index.
// The index owns the records; this pipeline only reads them.
type Record struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Firm          string   `json:"firm,omitempty"`
	Position      string   `json:"position,omitempty"`
	Industries    []string `json:"industries"`
	Thesis        string   `json:"thesis,omitempty"`
	MinInvestment string   `json:"min_investment,omitempty"`
	DMOpenStatus  DMStatus `json:"dm_open_status"`
	TwitterURL    string   `json:"twitter_url,omitempty"`
	Username      string   `json:"username,omitempty"`
}

// Match is an investor retained by the retrieval stage, carrying its
// similarity score and, after composition, the drafted outreach message.
type Match struct {
	Record
	Score               float32 `json:"score"`
	PersonalizedMessage string  `json:"personalized_message"`
}

// Hit is the raw similarity-search result. The index contract returns only
// id and score; full records are hydrated separately.
type Hit struct {
	ID    string
	Score float32
}

// Index is the similarity-search capability of the investor store.
// Results are ordered by descending similarity.
type Index interface {
	SearchSimilar(ctx context.Context, vector []float32, limit int) ([]Hit, error)
}

// Store is the by-id lookup capability of the investor store. A missing
// record yields (nil, nil): records can disappear between indexing and
// lookup and that is not an error.
type Store interface {
	GetByID(ctx context.Context, id string) (*Record, error)
}

// FirstName returns the investor's display first name, the first
// whitespace-delimited token of the full name with canonical casing.
func (r *Record) FirstName() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	name := strings.ToLower(fields[0])
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError && size <= 1 {
		return name
	}
	return string(unicode.ToUpper(first)) + name[size:]
}

// Destination returns the messaging target URL: the stored twitter url when
// present, otherwise a profile URL built from the username. Empty when the
// record has neither.
func (r *Record) Destination() string {
	if url := strings.TrimSpace(r.TwitterURL); url != "" {
		return url
	}
	username := strings.TrimPrefix(strings.TrimSpace(r.Username), "@")
	if username == "" {
		return ""
	}
	return profileURLPrefix + username
}

// SharesIndustry reports whether the record covers at least one of the
// required industries. Comparison ignores case and surrounding whitespace.
func (r *Record) SharesIndustry(required []string) bool {
	for _, want := range required {
		want = normalizeIndustry(want)
		if want == "" {
			continue
		}
		for _, have := range r.Industries {
			if normalizeIndustry(have) == want {
				return true
			}
		}
	}
	return false
}

func normalizeIndustry(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
