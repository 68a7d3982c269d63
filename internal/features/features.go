// Package features builds the fused per-article feature matrix.
package features

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Fusion errors.
var (
	ErrRowMismatch = errors.New("feature inputs have different row counts")
	ErrEmpty       = errors.New("no rows to fuse")
)

// NormalizeDates min-max scales dates to [0, 1] using the corpus-wide range.
// Missing dates map to 0, and every row maps to 0 when the range is empty.
func NormalizeDates(dates []*time.Time) []float64 {
	out := make([]float64, len(dates))

	var lo, hi float64
	found := false
	for _, d := range dates {
		if d == nil {
			continue
		}
		v := seconds(*d)
		if !found {
			lo, hi, found = v, v, true
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if !found || hi == lo {
		return out
	}

	span := hi - lo
	for i, d := range dates {
		if d != nil {
			out[i] = (seconds(*d) - lo) / span
		}
	}
	return out
}

// seconds converts to float seconds without going through time.Duration,
// which overflows for spans longer than ~292 years.
func seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// Fuse concatenates the normalised date column with the reduced concept
// embedding: column 0 is the date, columns 1..R are the embedding.
func Fuse(dates []float64, reduced mat.Matrix) (*mat.Dense, error) {
	n, r := reduced.Dims()
	if len(dates) != n {
		return nil, fmt.Errorf("%w: %d dates, %d embedding rows", ErrRowMismatch, len(dates), n)
	}

	if n == 0 {
		return nil, ErrEmpty
	}

	fused := mat.NewDense(n, r+1, nil)
	for i := 0; i < n; i++ {
		fused.Set(i, 0, dates[i])
		for j := 0; j < r; j++ {
			fused.Set(i, j+1, reduced.At(i, j))
		}
	}
	return fused, nil
}
