package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/indexer"
)

// handleClear implements the clear subcommand
func handleClear(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	all := fs.Bool("all", false, "Also remove imported repositories and the backlog")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag clear [-all]

DESCRIPTION:
    Remove every embedded document. With -all, imported repositories, their
    files and the backlog are removed as well.

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	if err := idx.Clear(ctx, *all); err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}
	if *all {
		if err := os.RemoveAll(cfg.GitHub.CatalogDir); err != nil {
			return fmt.Errorf("failed to remove catalog: %w", err)
		}
		fmt.Println("Cleared documents, repositories and backlog")
		return nil
	}
	fmt.Println("Cleared embedded documents")
	return nil
}
