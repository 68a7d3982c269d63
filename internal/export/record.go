// Package export builds and writes the records consumed by the website.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/jiekaitao/litmap/internal/article"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNonFinite is returned when a layout coordinate is NaN or infinite.
	ErrNonFinite = errors.New("non-finite coordinate")
	// ErrRowMismatch is returned when the inputs disagree on the article count.
	ErrRowMismatch = errors.New("row count mismatch")
)

// Record is one exported article.
type Record struct {
	ID          string   `json:"id"`
	ConceptIDs  []string `json:"concept_ids"`
	References  []string `json:"references"`
	DisplayName string   `json:"display_name"`
	DOI         *string  `json:"doi"`
	X           float64  `json:"x_tsne"`
	Y           float64  `json:"y_tsne"`
}

// Stats counts the anomalies seen while building records.
type Stats struct {
	UnparsedIDs       int
	InvalidReferences int
}

// Exporter pairs articles with their layout coordinates.
type Exporter struct {
	log zerolog.Logger
}

// NewExporter creates an exporter that reports anomalies to log.
func NewExporter(log zerolog.Logger) *Exporter {
	return &Exporter{log: log}
}

// Build returns one record per article in corpus order. parsed holds each
// article's concept IDs as the encoder read them and layout holds the 2-D
// coordinates, both indexed by corpus row.
func (e *Exporter) Build(corpus *article.Corpus, parsed [][]int64, layout mat.Matrix) ([]Record, Stats, error) {
	var stats Stats
	n := corpus.Len()
	if len(parsed) != n {
		return nil, stats, fmt.Errorf("%w: %d articles, %d concept rows", ErrRowMismatch, n, len(parsed))
	}
	r, c := layout.Dims()
	if r != n || c < 2 {
		return nil, stats, fmt.Errorf("%w: %d articles, layout is %d×%d", ErrRowMismatch, n, r, c)
	}

	records := make([]Record, n)
	for i := 0; i < n; i++ {
		a := corpus.At(i)

		x, y := layout.At(i, 0), layout.At(i, 1)
		if !finite(x) || !finite(y) {
			return nil, stats, fmt.Errorf("%w: article %s at row %d", ErrNonFinite, a.ID, i)
		}

		id := a.ID
		if num, err := article.ParseArticleID(a.ID); err == nil {
			id = article.FormatArticleID(num)
		} else {
			stats.UnparsedIDs++
			e.log.Warn().Int("row", i).Str("article", a.ID).Err(err).Msg("keeping unparseable article ID")
		}

		refs, invalid := article.ParseReferences(a.References)
		for _, tok := range invalid {
			e.log.Warn().
				Int("row", i).
				Str("article", a.ID).
				Str("token", tok).
				Msg("skipping invalid reference")
		}
		stats.InvalidReferences += len(invalid)

		records[i] = Record{
			ID:          id,
			ConceptIDs:  article.FormatConceptIDs(parsed[i]),
			References:  refs,
			DisplayName: a.DisplayName,
			DOI:         copyString(a.DOI),
			X:           x,
			Y:           y,
		}
	}
	return records, stats, nil
}

// Coordinates returns the x and y columns of records.
func Coordinates(records []Record) (xs, ys []float64) {
	xs = make([]float64, len(records))
	ys = make([]float64, len(records))
	for i, r := range records {
		xs[i], ys[i] = r.X, r.Y
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
