package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")

	cfg, err := Parse([]byte("embedding:\n  api_key: k\n"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 10, cfg.Embedding.BatchSize)
	assert.Equal(t, "sqlite", cfg.Vector.Backend)
	assert.Equal(t, 1000, cfg.Chunk.MaxSize)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.Equal(t, 0.7, cfg.Search.Threshold)
	assert.Equal(t, 5, cfg.Search.RAGLimit)
	assert.Equal(t, 1, cfg.Ingest.Workers)
	assert.Equal(t, []string{"**/*.md"}, cfg.Ingest.Include)
	assert.True(t, cfg.Ingest.ReadmeEnabled())
	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, 5, cfg.GitHub.PerPage)
	assert.Equal(t, 20, cfg.GitHub.MaxResults)
	assert.Equal(t, "k", cfg.LLM.APIKey)
	assert.True(t, filepath.IsAbs(cfg.Database.Path))
}

func TestParseVolcEngine(t *testing.T) {
	cfg, err := Parse([]byte(`
embedding:
  provider: volcengine
  api_key: k
  model: doubao-embedding
ingest:
  embed_readme: false
`))
	require.NoError(t, err)
	assert.Equal(t, "https://ark.cn-beijing.volces.com/api/v3", cfg.Embedding.BaseURL)
	assert.Equal(t, cfg.Embedding.BaseURL, cfg.LLM.BaseURL)
	assert.False(t, cfg.Ingest.ReadmeEnabled())
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected float64
	}{
		{"absent", "search:\n  limit: 3\n", 0.7},
		{"explicit zero", "search:\n  threshold: 0\n", 0},
		{"negative", "search:\n  threshold: -0.5\n", -0.5},
		{"custom", "search:\n  threshold: 0.82\n", 0.82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Search.Threshold)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad provider", "embedding:\n  provider: cohere\n"},
		{"bad backend", "vector:\n  backend: qdrant\n"},
		{"memory backend", "vector:\n  backend: memory\n"},
		{"batch too large", "embedding:\n  batch_size: 500\n"},
		{"threshold out of range", "search:\n  threshold: 1.5\n"},
		{"too many workers", "ingest:\n  workers: 99\n"},
		{"malformed yaml", "embedding: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, IsConfigNotFound(err))
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "forgerag.yaml")

	created, err := WriteDefaultTemplate(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteDefaultTemplate(path)
	require.NoError(t, err)
	assert.False(t, created)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedding.Provider)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "data"), expandPath("~/data"))
	assert.Equal(t, filepath.Join(home, "data"), expandPath("$HOME/data"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
