package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/indexer"
)

// handleStats implements the stats subcommand
func handleStats(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	var jsonOutput bool
	var top int
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.IntVar(&top, "top", 4, "Number of repositories and languages to list")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag stats [options]

DESCRIPTION:
    Show database counts and what the vector index holds.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Show human-readable statistics
    forgerag stats

    # JSON output
    forgerag stats -json
`)
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	stats, err := idx.Stats(ctx, top)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := map[string]any{
			"documents":        stats.Index.TotalDocuments,
			"repositories":     stats.DB.RepositoryCount,
			"files":            stats.DB.FileCount,
			"backlog_items":    stats.DB.BacklogCount,
			"database_bytes":   stats.DB.SizeBytes,
			"vector_backend":   stats.Backend,
			"top_repositories": stats.Index.TopRepositories,
			"top_languages":    stats.Index.TopLanguages,
		}
		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	fmt.Println("Index Statistics")
	fmt.Println()
	fmt.Printf("Documents:    %6d  (%s backend)\n", stats.Index.TotalDocuments, stats.Backend)
	fmt.Printf("Repositories: %6d\n", stats.DB.RepositoryCount)
	fmt.Printf("Files:        %6d\n", stats.DB.FileCount)
	fmt.Printf("Backlog:      %6d\n", stats.DB.BacklogCount)
	fmt.Printf("Database:     %6d bytes\n", stats.DB.SizeBytes)

	if len(stats.Index.TopRepositories) > 0 {
		fmt.Println("\nTop repositories:")
		for _, b := range stats.Index.TopRepositories {
			fmt.Printf("  %-40s %6d\n", b.Name, b.Count)
		}
	}
	if len(stats.Index.TopLanguages) > 0 {
		fmt.Println("\nTop languages:")
		for _, b := range stats.Index.TopLanguages {
			fmt.Printf("  %-40s %6d\n", b.Name, b.Count)
		}
	}
	return nil
}
