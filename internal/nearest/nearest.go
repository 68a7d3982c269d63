// Package nearest finds articles that sit close together in the 2-D layout.
package nearest

import (
	"errors"
	"sort"

	"github.com/jiekaitao/litmap/internal/export"
	"gonum.org/v1/gonum/floats"
)

// ErrArticleNotFound is returned when the query article is not in the index.
var ErrArticleNotFound = errors.New("article not in layout")

// Result is one neighbour of the query article.
type Result struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Distance    float64 `json:"distance"`
}

// Index holds the layout coordinates of every exported article.
type Index struct {
	records []export.Record
	rows    map[string]int // First row of each ID
}

// NewIndex indexes records by ID.
func NewIndex(records []export.Record) *Index {
	idx := &Index{
		records: records,
		rows:    make(map[string]int, len(records)),
	}
	for i, r := range records {
		if _, dup := idx.rows[r.ID]; !dup {
			idx.rows[r.ID] = i
		}
	}
	return idx
}

// Has checks if an article is in the index.
func (idx *Index) Has(id string) bool {
	_, ok := idx.rows[id]
	return ok
}

// Nearest returns the articles closest to id by Euclidean distance, nearest
// first. Ties keep export order. The source article is excluded.
func (idx *Index) Nearest(id string, limit int) ([]Result, error) {
	row, ok := idx.rows[id]
	if !ok {
		return nil, ErrArticleNotFound
	}

	src := idx.records[row]
	from := []float64{src.X, src.Y}
	to := make([]float64, 2)

	results := make([]Result, 0, len(idx.records)-1)
	for i, r := range idx.records {
		if i == row {
			continue // Skip the source article
		}
		to[0], to[1] = r.X, r.Y
		results = append(results, Result{
			ID:          r.ID,
			DisplayName: r.DisplayName,
			Distance:    floats.Distance(from, to, 2),
		})
	}

	// Sort by distance ascending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	// Apply limit
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
