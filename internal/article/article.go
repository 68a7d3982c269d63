// Package article defines the core domain types for the article corpus.
package article

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical identifier prefixes.
const (
	ArticlePrefix = "W" // Works: "W2741809807"
	ConceptPrefix = "C" // Concepts: "C41008148"
)

// Article is one row of the input table.
type Article struct {
	// Identity
	ID  string  `json:"id"`  // Canonical form "W<integer>"
	DOI *string `json:"doi"` // nil when the source has no DOI

	// Metadata
	DisplayName     string     `json:"display_name"`
	PublicationDate *time.Time `json:"publication_date"` // nil when missing

	// Raw comma-separated tag strings, empty when missing
	Concepts   string `json:"concepts"`   // "C1, C2, ..."
	References string `json:"references"` // "W1, W2, ..."
}

// Corpus is an ordered, index-addressable collection of articles.
//
// The position of an article in the corpus is its row index in every matrix
// the pipeline builds. A Corpus is never reordered or filtered once created.
type Corpus struct {
	articles []Article
}

// NewCorpus returns a corpus holding a copy of articles in the given order.
func NewCorpus(articles []Article) *Corpus {
	c := &Corpus{articles: make([]Article, len(articles))}
	copy(c.articles, articles)
	return c
}

// Len returns the number of articles.
func (c *Corpus) Len() int {
	return len(c.articles)
}

// At returns the article at row i.
func (c *Corpus) At(i int) Article {
	return c.articles[i]
}

// Dates returns every article's publication date in corpus order.
func (c *Corpus) Dates() []*time.Time {
	dates := make([]*time.Time, len(c.articles))
	for i := range c.articles {
		dates[i] = c.articles[i].PublicationDate
	}
	return dates
}

// ParseArticleID returns the integer part of a canonical article identifier.
func ParseArticleID(id string) (int64, error) {
	return parsePrefixed(strings.TrimSpace(id), ArticlePrefix)
}

// FormatArticleID returns the canonical display form of an article integer ID.
func FormatArticleID(id int64) string {
	return ArticlePrefix + strconv.FormatInt(id, 10)
}

// FormatConceptID returns the canonical display form of a concept integer ID.
func FormatConceptID(id int64) string {
	return ConceptPrefix + strconv.FormatInt(id, 10)
}

// FormatConceptIDs restores the display form of each concept ID, keeping order
// and duplicates. The result is never nil.
func FormatConceptIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = FormatConceptID(id)
	}
	return out
}

func parsePrefixed(token, prefix string) (int64, error) {
	rest, ok := strings.CutPrefix(token, prefix)
	if !ok {
		return 0, fmt.Errorf("%q: missing %q prefix", token, prefix)
	}
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return 0, fmt.Errorf("%q: want digits after %q", token, prefix)
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", token, err)
	}
	return n, nil
}
