package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/ingest"
)

// handleImport implements the import subcommand
func handleImport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    forgerag import [file.json]

DESCRIPTION:
    Import scraped repositories into the local database and rebuild the
    offline catalog. Reads stdin when no file is given or the file is "-".
    Accepts one repository object, an array of them, or {"repos": [...]}.
    Repositories are matched by full name, so re-importing updates them.

EXAMPLES:
    forgerag import repos.json
    cat repos.json | forgerag import
`)
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	var r io.Reader = os.Stdin
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	repos, err := ingest.ParseScraped(r)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Println("No repositories to import")
		return nil
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	imported, err := idx.ImportRepositories(ctx, repos)
	if err != nil {
		return fmt.Errorf("import interrupted after %d repositories: %w", imported, err)
	}

	log.Printf("Imported %d/%d repositories", imported, len(repos))
	fmt.Printf("Imported %d of %d repositories\n", imported, len(repos))
	if imported < len(repos) {
		return fmt.Errorf("%d repositories failed to import", len(repos)-imported)
	}
	return nil
}
