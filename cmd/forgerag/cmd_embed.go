package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DreamCats/forgerag/cmd/forgerag/internal"
	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/embedding"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/ingest"
)

// handleEmbed implements the embed subcommand
func handleEmbed(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	workers := fs.Int("workers", cfg.Ingest.Workers, "Number of concurrent embedding requests")
	noProgress := fs.Bool("no-progress", false, "Disable the progress bar")
	var include internal.StringList
	fs.Var(&include, "include", "Glob of repository files to embed (repeatable, overrides ingest.include)")
	var repos internal.StringList
	fs.Var(&repos, "repo", "Only embed this imported repository, as owner/name (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag embed [options]

DESCRIPTION:
    Chunk every imported README and matching repository file, embed the
    chunks in batches of embedding.batch_size and store them. Chunks are keyed by repository, file and position,
    so running embed again replaces earlier vectors.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    forgerag embed
    forgerag embed -workers 4 -include "docs/**/*.md"
    forgerag embed -repo nextauthjs/next-auth
`)
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	cfg.Ingest.Workers = *workers
	if len(include) > 0 {
		cfg.Ingest.Include = include
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	progress := ingest.NewProgress(!*noProgress && ingest.DefaultProgressEnabled())
	result, err := idx.EmbedRepositories(ctx, progress, repos...)
	if errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		return fmt.Errorf("%w: set embedding.api_key in the config file", err)
	}

	var batchErr *ingest.BatchError
	switch {
	case errors.As(err, &batchErr):
		fmt.Printf("Embedding finished with errors: %d of %d chunks stored, %d failed\n",
			result.Added, result.Chunks, batchErr.Failed)
		return err
	case err != nil:
		if result != nil {
			fmt.Printf("Embedding stopped: %d of %d chunks stored\n", result.Added, result.Chunks)
		}
		return err
	}

	fmt.Printf("Embedded %d chunks from %d repositories in %v\n",
		result.Added, result.Repositories, result.Duration.Round(time.Millisecond))
	return nil
}
