package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/retrieval"
)

// handleSearch implements the search subcommand
func handleSearch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var limit int
	var threshold float64
	var jsonOutput, verbose bool

	fs.IntVar(&limit, "k", cfg.Search.Limit, "Number of results to return")
	fs.Float64Var(&threshold, "threshold", cfg.Search.Threshold, "Minimum cosine similarity (exclusive)")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&verbose, "v", false, "Show the full text of each match")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag search [options] "<query>"

DESCRIPTION:
    Embed the query and list stored chunks whose cosine similarity is above
    the threshold, most similar first.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    forgerag search "streaming chat responses"
    forgerag search -k 3 -threshold 0.5 "oauth providers"
    forgerag search -json "vector database"
`)
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	matches, err := idx.Search(ctx, query, retrieval.SearchOptions{Limit: limit, Threshold: threshold})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(matches, query)
	}
	outputText(matches, query, verbose)
	return nil
}

// outputText outputs search results as human-readable text
func outputText(matches []retrieval.Match, query string, verbose bool) {
	if len(matches) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(matches), query)

	for i, m := range matches {
		meta := m.Document.Metadata
		file := meta.FilePath
		if file == "" {
			file = meta.FileName
		}
		fmt.Printf("%d. %s\n", i+1, meta.RepoName)
		fmt.Printf("   File:     %s\n", file)
		fmt.Printf("   Language: %s\n", meta.Language)
		fmt.Printf("   Score:    %.3f\n", m.Score)

		text := m.Document.Text
		if !verbose && len(text) > 160 {
			text = text[:160] + "..."
		}
		fmt.Printf("   %s\n\n", text)
	}
}

type searchResultJSON struct {
	ID       string  `json:"id"`
	Repo     string  `json:"repo"`
	FilePath string  `json:"file_path,omitempty"`
	FileName string  `json:"file_name,omitempty"`
	Language string  `json:"language,omitempty"`
	Type     string  `json:"type,omitempty"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// outputJSON outputs search results as JSON
func outputJSON(matches []retrieval.Match, query string) error {
	results := make([]searchResultJSON, 0, len(matches))
	for _, m := range matches {
		meta := m.Document.Metadata
		results = append(results, searchResultJSON{
			ID:       m.Document.ID,
			Repo:     meta.RepoName,
			FilePath: meta.FilePath,
			FileName: meta.FileName,
			Language: meta.Language,
			Type:     meta.Type,
			Score:    m.Score,
			Text:     m.Document.Text,
		})
	}

	output := map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	fmt.Println(string(jsonData))
	return nil
}
