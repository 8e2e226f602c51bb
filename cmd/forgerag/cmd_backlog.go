package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/forgerag/cmd/forgerag/internal"
	"github.com/DreamCats/forgerag/internal/backlog"
	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/store"
)

func printBacklogUsage() {
	fmt.Fprintf(os.Stderr, `USAGE:
    forgerag backlog <list|add|next|done> [options]

DESCRIPTION:
    Track project features and let the chat model propose the next one.

COMMANDS:
    list [-json]
        Show every feature in creation order

    add [-desc text] [-deps a,b] <id> <name>
        Record a feature by hand

    next [-query text] [-dry-run]
        Ask the model for the next feature and add it. -query retrieves
        related passages from embedded repositories as extra context.

    done <id>
        Mark a feature completed

EXAMPLES:
    forgerag backlog add crud-feature "CRUD Operations"
    forgerag backlog done crud-feature
    forgerag backlog next -query "role based access control"
`)
}

// handleBacklog implements the backlog subcommand
func handleBacklog(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "--help" {
		printBacklogUsage()
		return nil
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()
	_, backlogStore, _ := idx.GetStores()

	switch args[0] {
	case "list":
		return backlogList(ctx, backlogStore, args[1:])
	case "add":
		return backlogAdd(ctx, backlogStore, args[1:])
	case "next":
		return backlogNext(ctx, cfg, idx, backlogStore, args[1:])
	case "done":
		return backlogDone(ctx, backlogStore, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown backlog command %q\n\n", args[0])
		printBacklogUsage()
		os.Exit(1)
	}
	return nil
}

func backlogList(ctx context.Context, backlogStore *store.BacklogStore, args []string) error {
	fs := flag.NewFlagSet("backlog list", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	items, err := backlogStore.List(ctx)
	if err != nil {
		return err
	}

	if *jsonOutput {
		if items == nil {
			items = []store.BacklogItem{}
		}
		jsonData, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal backlog: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	if len(items) == 0 {
		fmt.Println("Backlog is empty")
		return nil
	}
	for _, item := range items {
		mark := " "
		if item.Completed {
			mark = "x"
		}
		fmt.Printf("[%s] %-28s %s\n", mark, item.ID, item.Name)
		if item.Description != "" {
			fmt.Printf("    %s\n", item.Description)
		}
		if len(item.Dependencies) > 0 {
			fmt.Printf("    depends on: %s\n", strings.Join(item.Dependencies, ", "))
		}
	}
	return nil
}

func backlogAdd(ctx context.Context, backlogStore *store.BacklogStore, args []string) error {
	fs := flag.NewFlagSet("backlog add", flag.ExitOnError)
	desc := fs.String("desc", "", "Feature description")
	var deps internal.StringList
	fs.Var(&deps, "deps", "Ids of features this one depends on")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	if fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Error: id and name are required\n\n")
		printBacklogUsage()
		os.Exit(1)
	}

	item := &store.BacklogItem{
		ID:           fs.Arg(0),
		Name:         strings.Join(fs.Args()[1:], " "),
		Description:  *desc,
		Dependencies: deps,
	}
	if err := backlogStore.Add(ctx, item); err != nil {
		return err
	}
	fmt.Printf("Added %s\n", item.ID)
	return nil
}

func backlogNext(ctx context.Context, cfg *config.Config, idx *indexer.Indexer, backlogStore *store.BacklogStore, args []string) error {
	fs := flag.NewFlagSet("backlog next", flag.ExitOnError)
	query := fs.String("query", "", "Retrieve related repository passages for this text")
	dryRun := fs.Bool("dry-run", false, "Print the proposal without saving it")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	items, err := backlogStore.List(ctx)
	if err != nil {
		return err
	}

	var ragContext string
	if strings.TrimSpace(*query) != "" {
		result := idx.Retriever().Retrieve(ctx, *query, cfg.Search.RAGLimit)
		ragContext = strings.Join(result.Context, "\n\n")
		log.Printf("Retrieved %d passages for backlog context", len(result.Context))
	}

	generator, err := backlog.NewGenerator(&cfg.LLM)
	if err != nil {
		return err
	}
	feature, err := generator.Next(ctx, items, ragContext)
	if err != nil {
		return err
	}

	fmt.Printf("Next feature: %s (%s)\n", feature.Name, feature.ID)
	if feature.Description != "" {
		fmt.Printf("  %s\n", feature.Description)
	}
	if len(feature.Dependencies) > 0 {
		fmt.Printf("  depends on: %s\n", strings.Join(feature.Dependencies, ", "))
	}

	if *dryRun {
		return nil
	}
	if err := backlogStore.Add(ctx, feature.Item()); err != nil {
		return err
	}
	fmt.Println("Added to backlog")
	return nil
}

func backlogDone(ctx context.Context, backlogStore *store.BacklogStore, args []string) error {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: feature id is required\n\n")
		printBacklogUsage()
		os.Exit(1)
	}
	if err := backlogStore.MarkCompleted(ctx, args[0]); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no backlog item with id %s", args[0])
		}
		return err
	}
	fmt.Printf("Completed %s\n", args[0])
	return nil
}
