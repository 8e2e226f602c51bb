package mcpserver

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/embedding"
	"github.com/DreamCats/forgerag/internal/indexer"
	"github.com/DreamCats/forgerag/internal/store"
)

type keywordClient struct{}

func (keywordClient) vector(text string) []float32 {
	if strings.Contains(strings.ToLower(text), "queue") {
		return []float32{1, 0}
	}
	return []float32{0, 1}
}

func (c keywordClient) Embed(_ context.Context, text string) ([]float32, error) {
	return c.vector(text), nil
}

func (c keywordClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = c.vector(text)
	}
	return out, nil
}

func (keywordClient) Dimensions() int { return 2 }

func newTestServer(t *testing.T, withEmbedder bool) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte("embedding:\n  api_key: test\n"))
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(dir, "forgerag.db")
	cfg.GitHub.CatalogDir = filepath.Join(dir, "catalog.bleve")
	cfg.Vector.Backend = "memory"

	db, err := store.Open(cfg.Database.Path)
	require.NoError(t, err)

	var svc *embedding.Service
	if withEmbedder {
		svc = embedding.NewServiceWithClient(&cfg.Embedding, keywordClient{})
	}
	idx := indexer.NewIndexerWithEmbedder(cfg, db, store.NewMemoryIndex(), svc)
	t.Cleanup(func() { idx.Close() })

	ctx := context.Background()
	_, err = idx.ImportRepositories(ctx, []*store.Repository{
		{FullName: "acme/jobs", Description: "Background job queue", Language: "Go", Stars: 1200, Readme: "A durable queue for Go services."},
		{FullName: "acme/site", Description: "Marketing site", Language: "TypeScript", Stars: 10, Readme: "Landing page copy."},
	})
	require.NoError(t, err)
	if withEmbedder {
		_, err = idx.EmbedRepositories(ctx, nil)
		require.NoError(t, err)
	}
	return New(idx, "test")
}

func TestToolsListed(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, false)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.build().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"forgerag_rag_search", "forgerag_score_repos", "forgerag_stats"}, names)

	call, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "forgerag_rag_search",
		Arguments: map[string]any{"query": ""},
	})
	require.NoError(t, err)
	assert.True(t, call.IsError)
}

func TestRAGSearchTool(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, true)

	_, out, err := s.ragSearchTool(ctx, nil, RAGSearchInput{Query: "job queue"})
	require.NoError(t, err)
	assert.Empty(t, out.Warning)
	require.NotEmpty(t, out.Context)
	assert.Equal(t, len(out.Context), out.Count)
	for _, text := range out.Context {
		assert.Contains(t, strings.ToLower(text), "queue")
	}
	require.NotEmpty(t, out.Sources)
	assert.Equal(t, "acme/jobs", out.Sources[0].RepoName)
	assert.Equal(t, "unknown", out.Sources[0].FilePath)

	_, _, err = s.ragSearchTool(ctx, nil, RAGSearchInput{Query: "  "})
	assert.Error(t, err)
}

func TestRAGSearchToolWithoutEmbeddings(t *testing.T) {
	s := newTestServer(t, false)

	_, out, err := s.ragSearchTool(context.Background(), nil, RAGSearchInput{Query: "queue"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warning)
	assert.Equal(t, []string{}, out.Context)
	assert.Equal(t, []RAGSource{}, out.Sources)
}

func TestScoreReposToolOffline(t *testing.T) {
	s := newTestServer(t, false)

	_, out, err := s.scoreReposTool(context.Background(), nil, ScoreReposInput{
		Query:       "durable queue",
		ProjectType: "custom",
		TechStack:   []string{"go"},
		Offline:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Repos)
	assert.Equal(t, "acme/jobs", out.Repos[0].FullName)
	assert.Equal(t, []string{}, out.Repos[0].Topics)
	assert.Equal(t, "go", out.Keywords[0])
	assert.Greater(t, out.Repos[0].Score, 0.0)
}

func TestStatsTool(t *testing.T) {
	s := newTestServer(t, true)

	_, out, err := s.statsTool(context.Background(), nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalDocuments)
	assert.EqualValues(t, 2, out.Repositories)
	assert.Equal(t, "memory", out.VectorBackend)
	assert.True(t, out.HasEmbeddings)
	require.Len(t, out.TopLanguages, 2)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
