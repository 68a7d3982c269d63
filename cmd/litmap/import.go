package main

import (
	"fmt"

	"github.com/jiekaitao/litmap/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <articles.jsonl> <articles.db>",
	Short: "Load a JSONL corpus into a SQLite database",
	Long: `Load a JSONL corpus into the articles table of a SQLite database.

Articles are appended in file order, which becomes the corpus order of later
runs. The database is created if it does not exist.

Usage:
  litmap import articles.jsonl articles.db`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

// ImportResult represents the result of an import operation.
type ImportResult struct {
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
	Database string `json:"database"`
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	corpus, err := storage.ReadArticlesJSONL(args[0], log)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	db, err := storage.OpenDB(args[1])
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InsertArticles(corpus); err != nil {
		return fmt.Errorf("importing articles: %w", err)
	}
	total, err := db.Count()
	if err != nil {
		return fmt.Errorf("counting articles: %w", err)
	}

	if humanOutput {
		outputHuman("Imported %d articles into %s (%d total)\n", corpus.Len(), args[1], total)
		return nil
	}
	return outputJSON(ImportResult{
		Imported: corpus.Len(),
		Total:    total,
		Database: args[1],
	})
}
