package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/forgerag/internal/store"
)

func TestParseScraped(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
	}{
		{"single object", `{"full_name":"a/b","name":"b"}`, 1},
		{"array", `[{"full_name":"a/b"},{"full_name":"a/c"}]`, 2},
		{"wrapped", `{"repos":[{"full_name":"a/b"}]}`, 1},
		{"empty", "  ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, err := ParseScraped(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, repos, tt.count)
		})
	}

	_, err := ParseScraped(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestParseScrapedFields(t *testing.T) {
	repos, err := ParseScraped(strings.NewReader(`{
		"full_name": "vercel/next.js",
		"name": "next.js",
		"owner": "vercel",
		"description": "The React Framework",
		"language": "JavaScript",
		"stars": 120000,
		"topics": ["react", "nextjs"],
		"updated_at": "2026-09-01T10:00:00Z",
		"readme": "Next.js docs.",
		"files": [{"name": "guide.md", "path": "docs/guide.md", "size": 12, "type": "file", "content": "Guide."}]
	}`))
	require.NoError(t, err)
	require.Len(t, repos, 1)

	repo := repos[0]
	assert.Equal(t, "vercel/next.js", repo.FullName)
	assert.Equal(t, 120000, repo.Stars)
	assert.Equal(t, []string{"react", "nextjs"}, repo.Topics)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), repo.PushedAt)
	require.Len(t, repo.Files, 1)
	assert.Equal(t, "docs/guide.md", repo.Files[0].Path)
}

func TestImportRepositories(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "forgerag.db"))
	require.NoError(t, err)
	defer db.Close()

	repos := []*store.Repository{
		{FullName: "a/b", Readme: "one."},
		{},
		{FullName: "a/b", Readme: "two."},
	}

	n, err := ImportRepositories(ctx, store.NewRepositoryStore(db), repos)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := store.NewRepositoryStore(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "two.", stored[0].Readme)
}
