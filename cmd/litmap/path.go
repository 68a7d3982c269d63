package main

import (
	"errors"
	"fmt"

	"github.com/jiekaitao/litmap/internal/citation"
	"github.com/spf13/cobra"
)

var (
	pathInput string
	pathAlgo  string
)

func init() {
	pathCmd.Flags().StringVarP(&pathInput, "input", "i", "", "Export file (default: configured output)")
	pathCmd.Flags().StringVar(&pathAlgo, "algo", "bfs", "Search algorithm: bfs (shortest) or dfs")
	rootCmd.AddCommand(pathCmd)
}

var pathCmd = &cobra.Command{
	Use:   "path <from-id> <to-id>",
	Short: "Find a citation path between two articles",
	Long: `Find a chain of references leading from one article to another.

Edges point from an article to the articles it references. BFS returns a
shortest path; DFS returns the first path found depth-first. A distance of -1
means the target cannot be reached.

Examples:
  litmap path W2741809807 W1999167944
  litmap path W2741809807 W1999167944 --algo dfs --human`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

// PathResponse is the JSON response for the path command.
type PathResponse struct {
	Algorithm string `json:"algorithm"`
	Articles  int    `json:"articles"`
	Citations int    `json:"citations"`
	*citation.TraversalResult
}

func runPath(cmd *cobra.Command, args []string) error {
	from, to := args[0], args[1]
	g := citation.NewGraph(mustReadRecords(exportPath(pathInput)))

	var (
		res *citation.TraversalResult
		err error
	)
	switch pathAlgo {
	case "bfs":
		res, err = g.BFS(from, to)
	case "dfs":
		res, err = g.DFS(from, to)
	default:
		exitWithError(ExitError, "invalid algorithm %q: must be bfs or dfs", pathAlgo)
	}
	if errors.Is(err, citation.ErrUnknownArticle) {
		exitWithError(ExitNotFound, "%v", err)
	}
	if err != nil {
		return fmt.Errorf("searching citations: %w", err)
	}

	if !humanOutput {
		return outputJSON(PathResponse{
			Algorithm:       pathAlgo,
			Articles:        g.Len(),
			Citations:       g.Edges(),
			TraversalResult: res,
		})
	}
	outputHuman("Citation graph: %d articles, %d citations\n", g.Len(), g.Edges())
	if !res.Found() {
		outputHuman("No citation path from %s to %s (%d articles visited)\n", from, to, len(res.Visited))
		return nil
	}
	outputHuman("%s\n", formatPath(res.Path))
	outputHuman("Distance %d, %d articles visited\n", res.Distance, len(res.Visited))
	return nil
}
