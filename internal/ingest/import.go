package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/DreamCats/forgerag/internal/store"
)

// scrapedRepo is the scraper export format for one repository.
type scrapedRepo struct {
	FullName    string   `json:"full_name"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	URL         string   `json:"url"`
	Topics      []string `json:"topics"`
	Readme      string   `json:"readme"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
	Files       []struct {
		Name     string `json:"name"`
		Path     string `json:"path"`
		Size     int64  `json:"size"`
		Type     string `json:"type"`
		Language string `json:"language"`
		Content  string `json:"content"`
	} `json:"files"`
}

// ParseScraped decodes a scraper export. It accepts a single repository
// object, an array of them, or an object with a "repos" array.
func ParseScraped(r io.Reader) ([]*store.Repository, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw []scrapedRepo
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse repositories: %w", err)
		}
	case '{':
		var wrapped struct {
			Repos []scrapedRepo `json:"repos"`
		}
		if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Repos != nil {
			raw = wrapped.Repos
			break
		}
		var single scrapedRepo
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to parse repository: %w", err)
		}
		raw = []scrapedRepo{single}
	default:
		return nil, fmt.Errorf("failed to parse repositories: unexpected input")
	}

	repos := make([]*store.Repository, 0, len(raw))
	for _, s := range raw {
		repos = append(repos, s.toRepository())
	}
	return repos, nil
}

func (s scrapedRepo) toRepository() *store.Repository {
	repo := &store.Repository{
		FullName:    s.FullName,
		Name:        s.Name,
		Owner:       s.Owner,
		Description: s.Description,
		Language:    s.Language,
		Stars:       s.Stars,
		Forks:       s.Forks,
		URL:         s.URL,
		Topics:      s.Topics,
		Readme:      s.Readme,
	}

	for _, value := range []string{s.PushedAt, s.UpdatedAt} {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			repo.PushedAt = ts
			break
		}
	}

	for _, f := range s.Files {
		repo.Files = append(repo.Files, store.RepositoryFile{
			Name:     f.Name,
			Path:     f.Path,
			Size:     f.Size,
			Type:     f.Type,
			Language: f.Language,
			Content:  f.Content,
		})
	}
	return repo
}

// RepositoryWriter stores scraped repositories
type RepositoryWriter interface {
	Upsert(ctx context.Context, repo *store.Repository) error
}

// ImportRepositories upserts each repository by full name. A repository
// that cannot be stored is logged and skipped; the count of stored ones is
// returned.
func ImportRepositories(ctx context.Context, w RepositoryWriter, repos []*store.Repository) (int, error) {
	imported := 0
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		if err := w.Upsert(ctx, repo); err != nil {
			log.Printf("Warning: failed to import %s: %v", repo.FullName, err)
			continue
		}
		log.Printf("Imported %s (%d files)", repo.FullName, len(repo.Files))
		imported++
	}
	return imported, nil
}
