package main

import (
	"fmt"
	"os"

	"github.com/jiekaitao/litmap/internal/config"
	"github.com/jiekaitao/litmap/internal/export"
	"github.com/jiekaitao/litmap/internal/logging"
	"github.com/jiekaitao/litmap/internal/pipeline"
	"github.com/jiekaitao/litmap/internal/viz"
	"github.com/spf13/cobra"
)

var (
	runInput      string
	runOutput     string
	runPlot       string
	runComponents int
	runPerplexity float64
	runIterations int
	runSVDSeed    uint64
	runTSNESeed   uint64
	runQuiet      bool
)

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "Corpus file (.db, .sqlite or .jsonl)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Export file (default: "+export.DefaultFile+")")
	runCmd.Flags().StringVar(&runPlot, "plot", "", "Also write an HTML scatter plot to this path")
	runCmd.Flags().IntVar(&runComponents, "components", 0, "SVD components (default: 50)")
	runCmd.Flags().Float64Var(&runPerplexity, "perplexity", 0, "t-SNE perplexity (default: 20)")
	runCmd.Flags().IntVar(&runIterations, "iterations", 0, "t-SNE iterations (default: 300)")
	runCmd.Flags().Uint64Var(&runSVDSeed, "svd-seed", 0, "SVD random seed (default: 42)")
	runCmd.Flags().Uint64Var(&runTSNESeed, "tsne-seed", 0, "t-SNE random seed (default: 1000)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not log t-SNE progress")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline and write the export",
	Long: `Run the full pipeline on a corpus and write website_ready.json.

Settings are layered: defaults, then litmap.yml (or --config), then .env and
LITMAP_* environment variables, then flags.

Examples:
  litmap run --input articles.db
  litmap run --input articles.jsonl --output web/website_ready.json --plot map.html
  litmap run --components 20 --perplexity 10 --tsne-seed 7`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// RunResponse is the JSON summary of a pipeline run.
type RunResponse struct {
	RunID  string         `json:"run_id"`
	Input  string         `json:"input"`
	Output string         `json:"output"`
	Plot   string         `json:"plot,omitempty"`
	Stats  pipeline.Stats `json:"stats"`
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, runID := logging.WithRun(newLogger(cfg))

	corpus, err := loadCorpus(cfg.Input, log)
	if err != nil {
		return err
	}
	log.Info().Str("input", cfg.Input).Int("articles", corpus.Len()).Msg("loaded corpus")

	opts := pipeline.Options{
		SVD:     cfg.Reduction.SVD(),
		TSNE:    cfg.Embedding.TSNE(),
		Verbose: cfg.Embedding.Verbose,
	}
	res, err := pipeline.New(opts, log).Run(corpus)
	if err != nil {
		return err
	}

	output := config.ExpandPath(cfg.Output)
	if err := export.WriteJSON(output, res.Records); err != nil {
		return err
	}
	log.Info().Str("output", output).Int("records", len(res.Records)).Msg("wrote export")

	if cfg.Plot != "" {
		html, err := viz.GenerateHTML(viz.FromRecords(res.Records), viz.DefaultOptions())
		if err != nil {
			return fmt.Errorf("generating HTML: %w", err)
		}
		if err := os.WriteFile(config.ExpandPath(cfg.Plot), []byte(html), 0644); err != nil {
			return fmt.Errorf("writing plot: %w", err)
		}
		log.Info().Str("plot", cfg.Plot).Msg("wrote scatter plot")
	}

	if humanOutput {
		s := res.Stats
		outputHuman("Run %s: %d articles, %d concepts (%d non-zeros)\n", runID, s.Articles, s.Concepts, s.NonZeros)
		outputHuman("  Warnings: %d concept, %d reference, %d unparsed IDs, %d missing dates\n",
			s.ConceptWarnings, s.ReferenceWarnings, s.UnparsedIDs, s.MissingDates)
		outputHuman("  t-SNE: %d iterations, KL %.4f\n", s.Iterations, s.KLDivergence)
		outputHuman("  Wrote %s in %s\n", cfg.Output, formatDuration(s.Duration))
		if cfg.Plot != "" {
			outputHuman("  Plot %s\n", cfg.Plot)
		}
		return nil
	}
	return outputJSON(RunResponse{
		RunID:  runID,
		Input:  cfg.Input,
		Output: cfg.Output,
		Plot:   cfg.Plot,
		Stats:  res.Stats,
	})
}

// applyRunFlags overrides cfg with the flags the user actually set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = runInput
	}
	if flags.Changed("output") {
		cfg.Output = runOutput
	}
	if flags.Changed("plot") {
		cfg.Plot = runPlot
	}
	if flags.Changed("components") {
		cfg.Reduction.Components = runComponents
	}
	if flags.Changed("perplexity") {
		cfg.Embedding.Perplexity = runPerplexity
	}
	if flags.Changed("iterations") {
		cfg.Embedding.Iterations = runIterations
	}
	if flags.Changed("svd-seed") {
		cfg.Reduction.Seed = runSVDSeed
	}
	if flags.Changed("tsne-seed") {
		cfg.Embedding.Seed = runTSNESeed
	}
	if flags.Changed("quiet") {
		cfg.Embedding.Verbose = !runQuiet
	}
}
