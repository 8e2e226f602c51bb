package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/DreamCats/forgerag/cmd/forgerag/internal"
	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/mcpserver"
)

// handleMCP implements the MCP stdio server subcommand
func handleMCP(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag mcp

DESCRIPTION:
    Run an MCP stdio server exposing:
      - forgerag_rag_search
      - forgerag_score_repos
      - forgerag_stats
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

	if err := mcpserver.New(idx, internal.Version).Run(ctx); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
