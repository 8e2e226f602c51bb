package indexer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/discovery"
	"github.com/DreamCats/forgerag/internal/embedding"
	"github.com/DreamCats/forgerag/internal/retrieval"
	"github.com/DreamCats/forgerag/internal/store"
)

// topicClient embeds text on two axes: authentication and chat.
type topicClient struct{}

func (topicClient) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := []float32{0, 0, 0.1}
	if strings.Contains(text, "auth") {
		v[0] = 1
	}
	if strings.Contains(text, "chat") {
		v[1] = 1
	}
	return v
}

func (c topicClient) Embed(_ context.Context, text string) ([]float32, error) {
	return c.vector(text), nil
}

func (c topicClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = c.vector(text)
	}
	return out, nil
}

func (topicClient) Dimensions() int { return 3 }

func newTestIndexer(t *testing.T, withEmbedder bool) *Indexer {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte("embedding:\n  api_key: test\n"))
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(dir, "forgerag.db")
	cfg.GitHub.CatalogDir = filepath.Join(dir, "catalog.bleve")

	db, err := store.Open(cfg.Database.Path)
	require.NoError(t, err)

	var svc *embedding.Service
	if withEmbedder {
		svc = embedding.NewServiceWithClient(&cfg.Embedding, topicClient{})
	}
	idx := NewIndexerWithEmbedder(cfg, db, store.NewSQLiteIndex(db), svc)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testRepos() []*store.Repository {
	return []*store.Repository{
		{
			FullName:    "nextauthjs/next-auth",
			Description: "Authentication for Next.js",
			Language:    "TypeScript",
			Stars:       25000,
			Topics:      []string{"oauth"},
			Readme:      "Auth made simple. Sign in with providers.",
			Files: []store.RepositoryFile{
				{Path: "docs/setup.md", Name: "setup.md", Content: "Configure auth secrets."},
			},
		},
		{
			FullName:    "acme/chat-kit",
			Description: "Chat UI components",
			Language:    "Python",
			Stars:       300,
			Readme:      "Build a chat app quickly.",
		},
	}
}

func TestIndexerEndToEnd(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t, true)

	imported, err := idx.ImportRepositories(ctx, testRepos())
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	result, err := idx.EmbedRepositories(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Repositories)
	assert.Equal(t, result.Chunks, result.Added)
	assert.Zero(t, result.Failed)

	matches, err := idx.Search(ctx, "auth", retrieval.SearchOptions{Limit: 10, Threshold: 0.7})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Equal(t, "nextauthjs/next-auth", m.Document.Metadata.RepoName)
	}

	rag := idx.Retriever().Retrieve(ctx, "chat", 5)
	require.Len(t, rag.Context, 1)
	assert.Equal(t, "Build a chat app quickly", rag.Context[0])

	stats, err := idx.Stats(ctx, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.DB.RepositoryCount)
	assert.Equal(t, result.Added, stats.Index.TotalDocuments)
	assert.Equal(t, "nextauthjs/next-auth", stats.Index.TopRepositories[0].Name)
	assert.Equal(t, 2, stats.Searches)
	assert.Equal(t, "sqlite", stats.Backend)

	require.NoError(t, idx.Clear(ctx, false))
	stats, err = idx.Stats(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, stats.Index.TotalDocuments)
	assert.EqualValues(t, 2, stats.DB.RepositoryCount)

	require.NoError(t, idx.Clear(ctx, true))
	stats, err = idx.Stats(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, stats.DB.RepositoryCount)
}

func TestIndexerEmbedSelectedRepositories(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t, true)

	_, err := idx.ImportRepositories(ctx, testRepos())
	require.NoError(t, err)

	result, err := idx.EmbedRepositories(ctx, nil, "acme/chat-kit")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Repositories)
	assert.Equal(t, 1, result.Added)

	matches, err := idx.Search(ctx, "auth", retrieval.SearchOptions{Limit: 10, Threshold: 0.7})
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = idx.EmbedRepositories(ctx, nil, "nobody/nothing")
	assert.ErrorContains(t, err, "nobody/nothing has not been imported")
}

func TestIndexerDiscoverOffline(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t, false)

	_, err := idx.Discover(ctx, discovery.Request{ProjectType: "custom"}, true)
	assert.Error(t, err, "catalog does not exist before import")

	_, err = idx.ImportRepositories(ctx, testRepos())
	require.NoError(t, err)

	resp, err := idx.Discover(ctx, discovery.Request{
		Query:       "chat",
		ProjectType: "ai-chatbot",
		TechStack:   []string{"typescript"},
	}, true)
	require.NoError(t, err)
	require.Len(t, resp.Repos, 2)
	assert.Equal(t, "next-auth", resp.Repos[0].Name)
	assert.Equal(t, 2, resp.Total)
}

func TestIndexerWithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t, false)

	_, err := idx.EmbedRepositories(ctx, nil)
	assert.ErrorIs(t, err, embedding.ErrEmbeddingUnavailable)

	_, err = idx.Search(ctx, "auth", retrieval.DefaultSearchOptions())
	assert.ErrorIs(t, err, embedding.ErrEmbeddingUnavailable)

	assert.ErrorIs(t, idx.Retriever().Check(), embedding.ErrEmbeddingUnavailable)
	rag := idx.Retriever().Retrieve(ctx, "auth", 5)
	assert.Empty(t, rag.Context)
}
