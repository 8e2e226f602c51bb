// Package catalog keeps a local full-text index of imported repositories so
// relevance scoring can run without the GitHub API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/DreamCats/forgerag/internal/relevance"
	"github.com/DreamCats/forgerag/internal/store"
)

// Catalog is a bleve index over stored repositories
type Catalog struct {
	index bleve.Index
}

type catalogDoc struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Language    string   `json:"language"`
	Readme      string   `json:"readme"`
	Stars       float64  `json:"stars"`
	Payload     string   `json:"payload"`
}

// Build recreates the catalog at dir from repos.
func Build(dir string, repos []*store.Repository) (*Catalog, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset catalog dir: %w", err)
	}
	index, err := bleve.New(dir, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	c := &Catalog{index: index}
	if err := c.add(repos); err != nil {
		index.Close()
		return nil, err
	}
	return c, nil
}

// Open opens an existing catalog.
func Open(dir string) (*Catalog, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return &Catalog{index: index}, nil
}

// Close releases the index
func (c *Catalog) Close() error {
	return c.index.Close()
}

func (c *Catalog) add(repos []*store.Repository) error {
	batch := c.index.NewBatch()
	for _, repo := range repos {
		payload, err := json.Marshal(toCandidate(repo))
		if err != nil {
			return fmt.Errorf("encode %s: %w", repo.FullName, err)
		}
		doc := catalogDoc{
			Name:        repo.Name,
			FullName:    repo.FullName,
			Description: repo.Description,
			Topics:      repo.Topics,
			Language:    strings.ToLower(repo.Language),
			Readme:      repo.Readme,
			Stars:       float64(repo.Stars),
			Payload:     string(payload),
		}
		if err := batch.Index(repo.ID, doc); err != nil {
			return fmt.Errorf("index %s: %w", repo.FullName, err)
		}
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("write catalog batch: %w", err)
	}
	return nil
}

// SearchRepositories returns up to perPage catalog repositories matching
// keyword, most-starred first.
func (c *Catalog) SearchRepositories(ctx context.Context, keyword string, perPage int) ([]relevance.Repository, error) {
	if perPage <= 0 {
		perPage = 5
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"name", 2.0},
		{"full_name", 1.5},
		{"topics", 1.5},
		{"description", 1.0},
		{"readme", 0.5},
	}
	queries := make([]blevequery.Query, 0, len(fields)+1)
	for _, f := range fields {
		q := bleve.NewMatchQuery(keyword)
		q.SetField(f.name)
		q.SetBoost(f.boost)
		queries = append(queries, q)
	}
	langQuery := bleve.NewTermQuery(strings.ToLower(keyword))
	langQuery.SetField("language")
	queries = append(queries, langQuery)

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), perPage, 0, false)
	req.Fields = []string{"payload"}
	req.SortBy([]string{"-stars", "-_score", "_id"})

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	repos := make([]relevance.Repository, 0, len(res.Hits))
	for _, hit := range res.Hits {
		payload, _ := hit.Fields["payload"].(string)
		var repo relevance.Repository
		if err := json.Unmarshal([]byte(payload), &repo); err != nil {
			return nil, fmt.Errorf("decode catalog hit %s: %w", hit.ID, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func toCandidate(repo *store.Repository) relevance.Repository {
	return relevance.Repository{
		ID:          repo.ID,
		Name:        repo.Name,
		FullName:    repo.FullName,
		Owner:       repo.Owner,
		URL:         repo.URL,
		Description: repo.Description,
		Language:    repo.Language,
		Stars:       repo.Stars,
		Topics:      repo.Topics,
		UpdatedAt:   repo.PushedAt,
	}
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"

	docMapping := bleve.NewDocumentMapping()

	for _, name := range []string{"name", "full_name", "topics", "description", "readme"} {
		field := bleve.NewTextFieldMapping()
		field.Store = false
		field.Index = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	languageField := bleve.NewTextFieldMapping()
	languageField.Analyzer = "keyword"
	languageField.Store = false
	docMapping.AddFieldMappingsAt("language", languageField)

	starsField := bleve.NewNumericFieldMapping()
	starsField.Store = false
	starsField.Index = true
	docMapping.AddFieldMappingsAt("stars", starsField)

	payloadField := bleve.NewTextFieldMapping()
	payloadField.Store = true
	payloadField.Index = false
	payloadField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("payload", payloadField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
