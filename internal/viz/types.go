// Package viz renders the 2-D article layout as a self-contained HTML scatter plot.
package viz

import (
	"errors"

	"github.com/jiekaitao/litmap/internal/export"
)

// ErrLengthMismatch is returned when the coordinate and label slices differ in length.
var ErrLengthMismatch = errors.New("scatter data slices differ in length")

// ScatterData holds one point per article, in corpus order.
type ScatterData struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Labels []string  `json:"labels"` // Hover text, usually the display name
	IDs    []string  `json:"ids"`
}

// FromRecords extracts plot data from exported records.
func FromRecords(records []export.Record) *ScatterData {
	xs, ys := export.Coordinates(records)
	d := &ScatterData{
		X:      xs,
		Y:      ys,
		Labels: make([]string, len(records)),
		IDs:    make([]string, len(records)),
	}
	for i, r := range records {
		d.Labels[i] = r.DisplayName
		d.IDs[i] = r.ID
	}
	return d
}

// Len returns the number of points.
func (d *ScatterData) Len() int {
	return len(d.X)
}

// IsEmpty returns true if there are no points.
func (d *ScatterData) IsEmpty() bool {
	return d.Len() == 0
}

// validate checks that every slice has one entry per point. Labels and IDs
// may be omitted entirely.
func (d *ScatterData) validate() error {
	n := len(d.X)
	if len(d.Y) != n {
		return ErrLengthMismatch
	}
	if d.Labels != nil && len(d.Labels) != n {
		return ErrLengthMismatch
	}
	if d.IDs != nil && len(d.IDs) != n {
		return ErrLengthMismatch
	}
	return nil
}
