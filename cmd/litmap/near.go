package main

import (
	"errors"

	"github.com/jiekaitao/litmap/internal/nearest"
	"github.com/spf13/cobra"
)

var (
	nearInput string
	nearLimit int
)

func init() {
	nearCmd.Flags().StringVarP(&nearInput, "input", "i", "", "Export file (default: configured output)")
	nearCmd.Flags().IntVarP(&nearLimit, "limit", "n", DefaultNearLimit, "Maximum results")
	rootCmd.AddCommand(nearCmd)
}

var nearCmd = &cobra.Command{
	Use:   "near <id>",
	Short: "List articles closest to an article in the layout",
	Long: `List the articles nearest to the given article in the exported 2-D layout.

Examples:
  litmap near W2741809807
  litmap near W2741809807 --limit 5 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runNear,
}

// NearResponse is the JSON response for the near command.
type NearResponse struct {
	ID      string           `json:"id"`
	Results []nearest.Result `json:"results"`
}

func runNear(cmd *cobra.Command, args []string) error {
	idx := nearest.NewIndex(mustReadRecords(exportPath(nearInput)))

	results, err := idx.Nearest(args[0], nearLimit)
	if errors.Is(err, nearest.ErrArticleNotFound) {
		exitWithError(ExitNotFound, "article %s not in export", args[0])
	}
	if err != nil {
		return err
	}

	if !humanOutput {
		return outputJSON(NearResponse{ID: args[0], Results: results})
	}
	if len(results) == 0 {
		outputHuman("No other articles in the layout.\n")
		return nil
	}
	for i, r := range results {
		outputHuman("%d. [%.3f] %s\n", i+1, r.Distance, r.ID)
		if r.DisplayName != "" {
			outputHuman("   %s\n", truncateString(r.DisplayName, NameMaxLen))
		}
	}
	return nil
}
