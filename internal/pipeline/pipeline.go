// Package pipeline runs the corpus-to-layout pipeline: concept encoding,
// truncated SVD, date fusion, t-SNE and record export.
package pipeline

import (
	"fmt"
	"time"

	"github.com/jiekaitao/litmap/internal/article"
	"github.com/jiekaitao/litmap/internal/concept"
	"github.com/jiekaitao/litmap/internal/export"
	"github.com/jiekaitao/litmap/internal/features"
	"github.com/jiekaitao/litmap/internal/reduce"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/mat"
)

// progressEvery is how many t-SNE steps pass between verbose log lines.
const progressEvery = 50

// Options configures a Pipeline.
type Options struct {
	SVD     reduce.TruncatedSVD
	TSNE    reduce.TSNE
	Verbose bool // Log t-SNE progress
}

// DefaultOptions returns the standard stage settings.
func DefaultOptions() Options {
	return Options{
		SVD:     reduce.DefaultTruncatedSVD(),
		TSNE:    reduce.DefaultTSNE(),
		Verbose: true,
	}
}

// Stats summarises a run.
type Stats struct {
	Articles          int           `json:"articles"`
	Concepts          int           `json:"concepts"`
	NonZeros          int           `json:"non_zeros"`
	ConceptWarnings   int           `json:"concept_warnings"`
	ReferenceWarnings int           `json:"reference_warnings"`
	UnparsedIDs       int           `json:"unparsed_ids"`
	MissingDates      int           `json:"missing_dates"`
	SingularValues    []float64     `json:"singular_values"`
	KLDivergence      float64       `json:"kl_divergence"`
	Iterations        int           `json:"iterations"`
	Duration          time.Duration `json:"duration_ns"`
}

// Result holds every intermediate product of a run, all indexed by corpus row.
type Result struct {
	Encoding *concept.Encoding
	Reduced  *reduce.Decomposition
	Dates    []float64  // Normalised publication dates
	Features *mat.Dense // Dates fused with the reduced concepts
	Layout   *reduce.Layout
	Records  []export.Record
	Stats    Stats
}

// Pipeline turns a corpus into exported layout records.
type Pipeline struct {
	opts     Options
	log      zerolog.Logger
	progress reduce.ProgressReporter
}

// New creates a pipeline.
func New(opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{opts: opts, log: log}
}

// SetProgressReporter sets an extra receiver for t-SNE progress.
func (p *Pipeline) SetProgressReporter(reporter reduce.ProgressReporter) {
	p.progress = reporter
}

// Run executes every stage in order. Any stage error aborts the run.
func (p *Pipeline) Run(corpus *article.Corpus) (*Result, error) {
	start := time.Now()
	n := corpus.Len()
	p.log.Info().Int("articles", n).Msg("starting pipeline")

	enc, err := concept.NewEncoder(p.log).Encode(corpus)
	if err != nil {
		return nil, err
	}

	stageStart := time.Now()
	reduced, err := p.opts.SVD.FitTransform(enc.Matrix)
	if err != nil {
		return nil, fmt.Errorf("reducing concepts: %w", err)
	}
	p.log.Info().
		Int("components", p.opts.SVD.Components).
		Dur("elapsed", time.Since(stageStart)).
		Msg("reduced concept matrix")

	dates := corpus.Dates()
	missing := 0
	for _, d := range dates {
		if d == nil {
			missing++
		}
	}
	normalized := features.NormalizeDates(dates)
	fused, err := features.Fuse(normalized, reduced.Transformed)
	if err != nil {
		return nil, fmt.Errorf("fusing features: %w", err)
	}
	if missing > 0 {
		p.log.Info().Int("missing", missing).Msg("articles without publication date placed at 0")
	}

	stageStart = time.Now()
	tsne := p.opts.TSNE
	tsne.Progress = p.reporter()
	layout, err := tsne.FitTransform(fused)
	if err != nil {
		return nil, fmt.Errorf("embedding features: %w", err)
	}
	p.log.Info().
		Int("iterations", layout.Iterations).
		Float64("kl_divergence", layout.KLDivergence).
		Float64("mean_sigma", layout.MeanSigma).
		Dur("elapsed", time.Since(stageStart)).
		Msg("t-SNE finished")

	records, exportStats, err := export.NewExporter(p.log).Build(corpus, enc.Parsed, layout.Embedding)
	if err != nil {
		return nil, fmt.Errorf("building records: %w", err)
	}

	stats := Stats{
		Articles:          n,
		Concepts:          enc.Vocabulary.Size(),
		NonZeros:          enc.Matrix.NNZ(),
		ConceptWarnings:   enc.Warnings,
		ReferenceWarnings: exportStats.InvalidReferences,
		UnparsedIDs:       exportStats.UnparsedIDs,
		MissingDates:      missing,
		SingularValues:    reduced.SingularValues,
		KLDivergence:      layout.KLDivergence,
		Iterations:        layout.Iterations,
		Duration:          time.Since(start),
	}
	p.log.Info().Int("records", len(records)).Dur("elapsed", stats.Duration).Msg("pipeline complete")

	return &Result{
		Encoding: enc,
		Reduced:  reduced,
		Dates:    normalized,
		Features: fused,
		Layout:   layout,
		Records:  records,
		Stats:    stats,
	}, nil
}

// reporter combines verbose logging with the caller's progress reporter.
func (p *Pipeline) reporter() reduce.ProgressReporter {
	if !p.opts.Verbose && p.progress == nil {
		return nil
	}
	every := rate.Sometimes{First: 1, Every: progressEvery}
	return reduce.ProgressFunc(func(pr reduce.Progress) {
		if p.opts.Verbose {
			// The last step is always logged; Sometimes covers the rest.
			if pr.Iteration == pr.Total {
				logProgress(p.log, pr)
			} else {
				every.Do(func() { logProgress(p.log, pr) })
			}
		}
		if p.progress != nil {
			p.progress.OnProgress(pr)
		}
	})
}

func logProgress(log zerolog.Logger, pr reduce.Progress) {
	log.Info().
		Int("iteration", pr.Iteration).
		Int("total", pr.Total).
		Float64("kl_divergence", pr.KLDivergence).
		Float64("grad_norm", pr.GradientNorm).
		Bool("exaggerated", pr.Exaggerated).
		Msg("t-SNE progress")
}
