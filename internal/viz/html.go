package viz

import (
	"bytes"
	"fmt"
	"html/template"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
}

// plotlyCDN is the Plotly build loaded by generated pages.
const plotlyCDN = `https://cdn.plot.ly/plotly-2.35.2.min.js`

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title     string
	PointSize float64 // Marker diameter in pixels
	Opacity   float64 // Marker opacity in (0, 1]
	Color     string  // Marker color for unmatched points
	Highlight string  // Marker color for search matches
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Title:     "Literature Map",
		PointSize: 6,
		Opacity:   0.6,
		Color:     "#1f77b4",
		Highlight: "#d62728",
	}
}

// validate checks the marker settings.
func (o HTMLOptions) validate() error {
	if o.PointSize <= 0 {
		return fmt.Errorf("invalid point size %g: must be positive", o.PointSize)
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		return fmt.Errorf("invalid opacity %g: must be in (0, 1]", o.Opacity)
	}
	return nil
}

// GenerateHTML generates a self-contained HTML page plotting every article.
// Hovering a point shows its label; the search box highlights points whose
// label contains the query.
func GenerateHTML(data *ScatterData, opts HTMLOptions) (string, error) {
	if data == nil {
		return "", fmt.Errorf("scatter data cannot be nil")
	}
	if err := data.validate(); err != nil {
		return "", err
	}
	if err := opts.validate(); err != nil {
		return "", err
	}

	if data.IsEmpty() {
		return generateEmptyHTML(), nil
	}

	traceJSON, err := data.toPlotlyJSON(opts)
	if err != nil {
		return "", err
	}

	td := templateData{
		Title:     opts.Title,
		ScriptSrc: plotlyCDN,
		TraceJSON: template.JS(traceJSON),
		Color:     opts.Color,
		Highlight: opts.Highlight,
		Count:     data.Len(),
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, td); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// templateData holds data for the HTML template.
type templateData struct {
	Title     string
	ScriptSrc string
	TraceJSON template.JS
	Color     string
	Highlight string
	Count     int
}

// generateEmptyHTML returns HTML for an empty layout.
func generateEmptyHTML() string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Literature Map - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No articles to plot</h2>
    <p>Run <code>litmap run</code> on a non-empty corpus first.</p>
  </div>
</body>
</html>`
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="{{.ScriptSrc}}"></script>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #toolbar {
      display: flex;
      gap: 12px;
      align-items: center;
      padding: 8px 12px;
      background: white;
      border-bottom: 1px solid #ddd;
      font-size: 13px;
    }
    #search {
      width: 320px;
      padding: 4px 8px;
      border: 1px solid #ccc;
      border-radius: 4px;
    }
    #status {
      color: #666;
    }
    #plot {
      width: 100%;
      height: calc(100vh - 42px);
      background: white;
    }
  </style>
</head>
<body>
  <div id="toolbar">
    <strong>{{.Title}}</strong>
    <input id="search" type="search" placeholder="Search titles..." autocomplete="off">
    <span id="status">{{.Count}} articles</span>
  </div>
  <div id="plot"></div>
  <script>
    (function() {
      const data = {{.TraceJSON}};
      const baseColor = {{.Color}};
      const highlight = {{.Highlight}};
      const trace = data[0];
      const total = trace.x.length;
      const labels = trace.text.map(function(s) { return (s || '').toLowerCase(); });

      const layout = {
        hovermode: 'closest',
        margin: {l: 40, r: 20, t: 20, b: 40},
        xaxis: {zeroline: false, title: 'x_tsne'},
        yaxis: {zeroline: false, title: 'y_tsne'}
      };

      Plotly.newPlot('plot', data, layout, {responsive: true});

      const status = document.getElementById('status');

      document.getElementById('search').addEventListener('input', function(evt) {
        const q = evt.target.value.trim().toLowerCase();
        if (!q) {
          Plotly.restyle('plot', {'marker.color': baseColor});
          status.textContent = total + ' articles';
          return;
        }

        let matches = 0;
        const colors = labels.map(function(label) {
          if (label.indexOf(q) >= 0) {
            matches++;
            return highlight;
          }
          return baseColor;
        });
        Plotly.restyle('plot', {'marker.color': [colors]});
        status.textContent = matches + ' of ' + total + ' articles match';
      });
    })();
  </script>
</body>
</html>`
