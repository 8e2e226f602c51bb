// Package indexer wires configuration, storage, embeddings and search into
// the operations the CLI and the MCP server share.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/DreamCats/forgerag/internal/catalog"
	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/discovery"
	"github.com/DreamCats/forgerag/internal/embedding"
	"github.com/DreamCats/forgerag/internal/github"
	"github.com/DreamCats/forgerag/internal/ingest"
	"github.com/DreamCats/forgerag/internal/relevance"
	"github.com/DreamCats/forgerag/internal/retrieval"
	"github.com/DreamCats/forgerag/internal/store"
)

// Indexer owns the database and the services built on top of it
type Indexer struct {
	cfg          *config.Config
	db           *store.DB
	vectors      store.VectorIndex
	embedService *embedding.Service
	repoStore    *store.RepositoryStore
	backlogStore *store.BacklogStore
	ranker       *retrieval.Ranker
	retriever    *retrieval.Retriever
}

// NewIndexer opens the database and builds the services. A missing
// embedding api key is not fatal: search and RAG then report
// embedding.ErrEmbeddingUnavailable.
func NewIndexer(cfg *config.Config) (*Indexer, error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The memory index is only reachable through NewIndexerWithEmbedder.
	vectors := store.NewSQLiteIndex(db)

	embedService, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		if !errors.Is(err, embedding.ErrEmbeddingUnavailable) {
			db.Close()
			return nil, fmt.Errorf("failed to create embedding service: %w", err)
		}
		log.Printf("Warning: %v", err)
		embedService = nil
	}

	return newIndexer(cfg, db, vectors, embedService), nil
}

// NewIndexerWithEmbedder builds an indexer around an existing database and
// embedding service; embedService may be nil.
func NewIndexerWithEmbedder(cfg *config.Config, db *store.DB, vectors store.VectorIndex, embedService *embedding.Service) *Indexer {
	return newIndexer(cfg, db, vectors, embedService)
}

func newIndexer(cfg *config.Config, db *store.DB, vectors store.VectorIndex, embedService *embedding.Service) *Indexer {
	ranker := retrieval.NewRanker(vectors)

	// A nil *Service must reach the retriever as a nil interface.
	var embedder retrieval.Embedder
	if embedService != nil {
		embedder = embedService
	}

	return &Indexer{
		cfg:          cfg,
		db:           db,
		vectors:      vectors,
		embedService: embedService,
		repoStore:    store.NewRepositoryStore(db),
		backlogStore: store.NewBacklogStore(db),
		ranker:       ranker,
		retriever:    retrieval.NewRetriever(embedder, ranker, cfg.Search.Threshold, nil),
	}
}

// Close closes the database
func (idx *Indexer) Close() error {
	return idx.db.Close()
}

// Config returns the configuration the indexer was built from
func (idx *Indexer) Config() *config.Config {
	return idx.cfg
}

// GetStores returns the underlying stores
func (idx *Indexer) GetStores() (*store.RepositoryStore, *store.BacklogStore, store.VectorIndex) {
	return idx.repoStore, idx.backlogStore, idx.vectors
}

// Retriever returns the RAG retriever
func (idx *Indexer) Retriever() *retrieval.Retriever {
	return idx.retriever
}

// ImportRepositories stores scraped repositories and rebuilds the catalog.
// A catalog failure is logged; the sqlite import still counts.
func (idx *Indexer) ImportRepositories(ctx context.Context, repos []*store.Repository) (int, error) {
	imported, err := ingest.ImportRepositories(ctx, idx.repoStore, repos)
	if err != nil {
		return imported, err
	}
	if imported > 0 {
		if err := idx.RebuildCatalog(ctx); err != nil {
			log.Printf("Warning: failed to rebuild catalog: %v", err)
		}
	}
	return imported, nil
}

// RebuildCatalog recreates the offline repository catalog from sqlite.
func (idx *Indexer) RebuildCatalog(ctx context.Context) error {
	repos, err := idx.repoStore.List(ctx)
	if err != nil {
		return err
	}
	for _, repo := range repos {
		files, err := idx.repoStore.Files(ctx, repo.ID)
		if err != nil {
			return err
		}
		repo.Files = files
	}

	c, err := catalog.Build(idx.cfg.GitHub.CatalogDir, repos)
	if err != nil {
		return err
	}
	log.Printf("Catalog rebuilt with %d repositories", len(repos))
	return c.Close()
}

// EmbedRepositories embeds the named repositories, or every stored one when
// no name is given. progress may be nil.
func (idx *Indexer) EmbedRepositories(ctx context.Context, progress ingest.ProgressReporter, fullNames ...string) (*ingest.Result, error) {
	if idx.embedService == nil {
		return nil, embedding.ErrEmbeddingUnavailable
	}

	repos, err := idx.loadRepositories(ctx, fullNames)
	if err != nil {
		return nil, err
	}

	pipeline := ingest.NewPipeline(idx.embedService, idx.vectors, ingest.Options{
		MaxChunkSize: idx.cfg.Chunk.MaxSize,
		Workers:      idx.cfg.Ingest.Workers,
		BatchSize:    idx.cfg.Embedding.BatchSize,
		Include:      idx.cfg.Ingest.Include,
		EmbedReadme:  idx.cfg.Ingest.ReadmeEnabled(),
	}, progress)
	return pipeline.EmbedRepositories(ctx, repos)
}

func (idx *Indexer) loadRepositories(ctx context.Context, fullNames []string) ([]*store.Repository, error) {
	if len(fullNames) > 0 {
		repos := make([]*store.Repository, 0, len(fullNames))
		for _, name := range fullNames {
			repo, err := idx.repoStore.GetByFullName(ctx, name)
			if err != nil {
				return nil, err
			}
			if repo == nil {
				return nil, fmt.Errorf("repository %s has not been imported", name)
			}
			repos = append(repos, repo)
		}
		return repos, nil
	}

	repos, err := idx.repoStore.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, repo := range repos {
		files, err := idx.repoStore.Files(ctx, repo.ID)
		if err != nil {
			return nil, err
		}
		repo.Files = files
	}
	return repos, nil
}

// Search embeds text and ranks stored documents against it.
func (idx *Indexer) Search(ctx context.Context, text string, opts retrieval.SearchOptions) ([]retrieval.Match, error) {
	return idx.retriever.Search(ctx, text, opts)
}

// Discover finds repositories for a project. offline searches the local
// catalog instead of GitHub.
func (idx *Indexer) Discover(ctx context.Context, req discovery.Request, offline bool) (*discovery.Response, error) {
	bundles, err := relevance.LoadBundlesFile(idx.cfg.Relevance.ProjectTypesFile)
	if err != nil {
		return nil, err
	}

	var searcher discovery.RepoSearcher
	if offline {
		c, err := catalog.Open(idx.cfg.GitHub.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog (run import first): %w", err)
		}
		defer c.Close()
		searcher = c
	} else {
		client, err := github.NewClient(&idx.cfg.GitHub)
		if err != nil {
			return nil, err
		}
		searcher = client
	}

	svc := discovery.NewService(searcher, bundles, discovery.Options{
		PerPage:    idx.cfg.GitHub.PerPage,
		MaxResults: idx.cfg.GitHub.MaxResults,
	})
	return svc.Find(ctx, req)
}

// Stats combines database counts with the vector index breakdown
type Stats struct {
	DB            *store.DBStats
	Index         *retrieval.IndexStats
	Backend       string
	Searches      int
	AvgSearchTime time.Duration
}

// Stats collects statistics; topN bounds the repository and language lists.
func (idx *Indexer) Stats(ctx context.Context, topN int) (*Stats, error) {
	dbStats, err := idx.db.Stats(ctx)
	if err != nil {
		return nil, err
	}
	indexStats, err := retrieval.Stats(ctx, idx.vectors, topN)
	if err != nil {
		return nil, err
	}
	count, avg := idx.retriever.Searches().Snapshot()
	return &Stats{
		DB:            dbStats,
		Index:         indexStats,
		Backend:       idx.cfg.Vector.Backend,
		Searches:      count,
		AvgSearchTime: avg,
	}, nil
}

// Clear removes embedded documents, or every table when all is set.
func (idx *Indexer) Clear(ctx context.Context, all bool) error {
	if all {
		if err := idx.db.Clear(ctx); err != nil {
			return err
		}
	}
	// The memory backend is not backed by the database.
	return idx.vectors.Clear(ctx)
}
