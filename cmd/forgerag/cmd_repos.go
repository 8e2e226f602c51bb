package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/DreamCats/forgerag/cmd/forgerag/internal"
	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/discovery"
	"github.com/DreamCats/forgerag/internal/github"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/relevance"
)

// handleRepos implements the repos subcommand
func handleRepos(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("repos", flag.ExitOnError)
	projectType := fs.String("type", "custom", "Project type keyword bundle")
	offline := fs.Bool("offline", false, "Search the local catalog instead of GitHub")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	var stack internal.StringList
	fs.Var(&stack, "stack", "Technology in the project (repeatable or comma separated)")

	fs.Usage = func() {
		bundles, _ := relevance.LoadBundlesFile(cfg.Relevance.ProjectTypesFile)
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag repos [options] ["<project description>"]

DESCRIPTION:
    Build search keywords from the tech stack, project type and description,
    search repositories for each keyword and rank the union by relevance.

    Project types: %s

OPTIONS:
`, strings.Join(bundles.Types(), ", "))
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    forgerag repos -type ai-chatbot -stack typescript,nextjs "assistant with memory"
    forgerag repos -offline -stack go "job queue"
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

	resp, err := idx.Discover(ctx, discovery.Request{
		Query:       strings.Join(fs.Args(), " "),
		ProjectType: *projectType,
		TechStack:   stack,
	}, *offline)
	if errors.Is(err, github.ErrTokenMissing) {
		return fmt.Errorf("%w: set github.token or GITHUB_TOKEN, or pass -offline", err)
	}
	if err != nil {
		return err
	}

	if *jsonOutput {
		jsonData, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal repositories: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	if len(resp.Repos) == 0 {
		fmt.Println("No repositories found")
		return nil
	}

	fmt.Printf("Keywords: %s\n", strings.Join(resp.Keywords, ", "))
	fmt.Printf("Showing %d of %d repositories\n\n", len(resp.Repos), resp.Total)
	for i, repo := range resp.Repos {
		fmt.Printf("%2d. %-40s %.2f\n", i+1, repo.FullName, repo.RelevanceScore)
		fmt.Printf("    %s | %d stars\n", orUnknown(repo.Language), repo.Stars)
		if repo.Description != "" {
			fmt.Printf("    %s\n", repo.Description)
		}
		if repo.URL != "" {
			fmt.Printf("    %s\n", repo.URL)
		}
		fmt.Println()
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
