package main

import (
	"fmt"
	"os"

	"github.com/jiekaitao/litmap/internal/viz"
	"github.com/spf13/cobra"
)

var (
	vizInput     string
	vizOutput    string
	vizTitle     string
	vizPointSize float64
	vizOpacity   float64
)

func init() {
	defaults := viz.DefaultOptions()
	vizCmd.Flags().StringVarP(&vizInput, "input", "i", "", "Export file (default: configured output)")
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizTitle, "title", defaults.Title, "Page title")
	vizCmd.Flags().Float64Var(&vizPointSize, "point-size", defaults.PointSize, "Marker size in pixels")
	vizCmd.Flags().Float64Var(&vizOpacity, "opacity", defaults.Opacity, "Marker opacity")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate the layout scatter plot",
	Long: `Generate an interactive HTML scatter plot of an export file.

Every article is one point at (x_tsne, y_tsne). Hovering a point shows its
display name and the search box highlights articles whose name matches.

Examples:
  # Generate HTML to stdout
  litmap viz > map.html

  # Generate to file from a specific export
  litmap viz --input web/website_ready.json --output map.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	records := mustReadRecords(exportPath(vizInput))

	opts := viz.DefaultOptions()
	opts.Title = vizTitle
	opts.PointSize = vizPointSize
	opts.Opacity = vizOpacity

	html, err := viz.GenerateHTML(viz.FromRecords(records), opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		outputHuman("Scatter plot of %d articles written to %s\n", len(records), vizOutput)
		return nil
	}
	return outputJSON(OutputResponse{Output: vizOutput, Count: len(records)})
}
