package viz

import (
	"fmt"

	"github.com/goccy/go-json"
)

// plotlyTrace is a Plotly scattergl trace.
type plotlyTrace struct {
	Type       string       `json:"type"`
	Mode       string       `json:"mode"`
	X          []float64    `json:"x"`
	Y          []float64    `json:"y"`
	Text       []string     `json:"text"`
	CustomData []string     `json:"customdata"`
	HoverInfo  string       `json:"hoverinfo"`
	Marker     plotlyMarker `json:"marker"`
}

type plotlyMarker struct {
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
	Color   string  `json:"color"`
}

// toPlotlyJSON converts scatter data to a single-trace Plotly data array.
func (d *ScatterData) toPlotlyJSON(opts HTMLOptions) (string, error) {
	n := d.Len()
	text := d.Labels
	if text == nil {
		text = make([]string, n)
	}
	ids := d.IDs
	if ids == nil {
		ids = make([]string, n)
	}

	trace := plotlyTrace{
		Type:       "scattergl",
		Mode:       "markers",
		X:          d.X,
		Y:          d.Y,
		Text:       text,
		CustomData: ids,
		HoverInfo:  "text",
		Marker: plotlyMarker{
			Size:    opts.PointSize,
			Opacity: opts.Opacity,
			Color:   opts.Color,
		},
	}

	jsonBytes, err := json.Marshal([]plotlyTrace{trace})
	if err != nil {
		return "", fmt.Errorf("marshaling Plotly trace to JSON: %w", err)
	}
	return string(jsonBytes), nil
}
