package topic

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

const (
	DefaultThreshold = 80.0
	DefaultLimit     = 3
)

// Match is the outcome of resolving a requested topic name
type Match struct {
	Best        string   `json:"best,omitempty"`
	Found       bool     `json:"found"`
	Score       float64  `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// Resolver matches free-text topic names against the topics known to a collection
type Resolver struct {
	Threshold float64
	Limit     int
}

// NewResolver creates a resolver with the default threshold and suggestion count
func NewResolver() *Resolver {
	return &Resolver{Threshold: DefaultThreshold, Limit: DefaultLimit}
}

// Similarity scores two strings on a 0-100 scale, ignoring case. The score
// is the indel ratio 100*(1 - indel/(len a + len b)), where indel counts the
// insertions and deletions needed to turn one string into the other.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}

	indel := total - 2*edlib.LCS(a, b)
	return 100 * (1 - float64(indel)/float64(total))
}

// Resolve returns the best candidate for query. Best is left empty when the
// top score falls below the threshold; Suggestions are returned either way.
// Equal scores keep the order in which candidates were given.
func (r *Resolver) Resolve(query string, candidates []string) Match {
	m := Match{Suggestions: []string{}}
	if len(candidates) == 0 {
		return m
	}

	type scored struct {
		topic string
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{topic: c, score: Similarity(query, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	for _, s := range ranked[:limit] {
		m.Suggestions = append(m.Suggestions, s.topic)
	}

	m.Score = ranked[0].score
	if m.Score >= r.Threshold {
		m.Best = ranked[0].topic
		m.Found = true
	}
	return m
}
