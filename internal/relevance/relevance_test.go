package relevance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		repo     Repository
		query    Query
		expected float64
	}{
		{
			name: "language, stars, recency and keyword in name",
			repo: Repository{ID: "1", Name: "next-auth", Stars: 8000, Language: "TypeScript", UpdatedAt: now},
			query: Query{
				TechStack: []string{"TypeScript"},
				Keywords:  []string{"auth"},
			},
			// 0.25 language + 0.10 "auth" in name + 0.20 stars + 0.10 recency
			expected: 0.65,
		},
		{
			name: "stars below saturation",
			repo: Repository{ID: "1", Name: "widget", Stars: 1600, Language: "TypeScript", UpdatedAt: now},
			query: Query{
				TechStack: []string{"typescript"},
				Keywords:  []string{"auth"},
			},
			// 0.25 language + 0.16 stars + 0.10 recency
			expected: 0.51,
		},
		{
			name: "nothing shared scores stars and recency only",
			repo: Repository{ID: "1", Name: "lib", Description: "tools", Stars: 500, UpdatedAt: now.AddDate(0, -1, 0)},
			query: Query{
				TechStack: []string{"rust"},
				Keywords:  []string{"quantum"},
			},
			expected: 0.15,
		},
		{
			name: "stale repository gets no recency bonus",
			repo: Repository{ID: "1", Name: "lib", Stars: 0, UpdatedAt: now.AddDate(0, -7, 0)},
			expected: 0,
		},
		{
			name: "exactly six months ago is not recent",
			repo: Repository{ID: "1", Name: "lib", UpdatedAt: now.AddDate(0, -6, 0)},
			expected: 0,
		},
		{
			name: "tech in name, description and topics",
			repo: Repository{
				ID:          "1",
				Name:        "react-admin",
				Description: "An admin framework for React",
				Topics:      []string{"react-components", "admin"},
			},
			query:    Query{TechStack: []string{"React"}},
			expected: 0.65,
		},
		{
			name: "capped at one",
			repo: Repository{
				ID:          "1",
				Name:        "nextjs-react-typescript-prisma",
				Description: "nextjs react typescript prisma tailwind starter",
				Language:    "TypeScript",
				Topics:      []string{"nextjs", "react", "typescript"},
				Stars:       50000,
				UpdatedAt:   now,
			},
			query: Query{
				TechStack: []string{"nextjs", "react", "typescript"},
				Keywords:  GenericKeywords,
			},
			expected: 1.0,
		},
		{
			name:     "negative stars floor at zero",
			repo:     Repository{ID: "1", Name: "lib", Stars: -50000},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := Score([]Repository{tt.repo}, tt.query, now)
			require.Len(t, scored, 1)
			assert.InDelta(t, tt.expected, scored[0].RelevanceScore, 1e-9)
		})
	}
}

func TestScoreStarSaturation(t *testing.T) {
	repos := []Repository{
		{ID: "a", Name: "a", Stars: 5000},
		{ID: "b", Name: "b", Stars: 10000},
		{ID: "c", Name: "c", Stars: 20000},
	}
	scored := Score(repos, Query{}, now)
	for _, r := range scored {
		assert.InDelta(t, 0.20, r.RelevanceScore, 1e-9)
	}
	// All tied, so input order is kept.
	assert.Equal(t, "a", scored[0].ID)
	assert.Equal(t, "b", scored[1].ID)
	assert.Equal(t, "c", scored[2].ID)
}

func TestScoreSortsAndDedupes(t *testing.T) {
	repos := []Repository{
		{ID: "1", Name: "plain", Stars: 100},
		{ID: "2", Name: "go-kit", Language: "Go", Stars: 100},
		{ID: "1", Name: "plain-duplicate", Stars: 90000, Language: "Go"},
		{FullName: "x/nameless", Name: "nameless"},
		{FullName: "X/Nameless", Name: "nameless"},
	}

	scored := Score(repos, Query{TechStack: []string{"go"}}, now)
	require.Len(t, scored, 3)
	assert.Equal(t, "2", scored[0].ID)
	assert.Equal(t, "plain", scored[1].Name)
	assert.Equal(t, "nameless", scored[2].Name)

	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].RelevanceScore, scored[i].RelevanceScore)
	}
}

func TestScoreIgnoresEmptyTerms(t *testing.T) {
	scored := Score([]Repository{{ID: "1", Name: "anything"}}, Query{Keywords: []string{"", "  "}, TechStack: []string{""}}, now)
	assert.Zero(t, scored[0].RelevanceScore)
}

func TestDedupe(t *testing.T) {
	repos := []Repository{{ID: "1", Name: "first"}, {ID: "2"}, {ID: "1", Name: "second"}}
	out := Dedupe(repos)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Name)
	assert.Empty(t, Dedupe(nil))
}

func TestExtractKeywords(t *testing.T) {
	bundles := DefaultBundles()

	t.Run("full order", func(t *testing.T) {
		got := ExtractKeywords("Build a Chat App with streaming replies and memory storage", "ai-chatbot",
			[]string{"nextjs", "OpenAI"}, bundles)

		expected := []string{
			"nextjs", "OpenAI",
			"chatbot", "AI assistant", "conversational AI", "LLM", "language model", "chat interface", "RAG",
			"build", "chat", "with", "streaming", "replies",
			"fullstack", "typescript", "react", "tailwind", "prisma",
		}
		assert.Equal(t, expected, got)
	})

	t.Run("unknown project type", func(t *testing.T) {
		got := ExtractKeywords("", "space-station", nil, bundles)
		assert.Equal(t, GenericKeywords, got)
	})

	t.Run("custom bundle is empty", func(t *testing.T) {
		got := ExtractKeywords("tiny", "custom", []string{"", "svelte"}, bundles)
		assert.Equal(t, append([]string{"svelte", "tiny"}, GenericKeywords...), got)
	})

	t.Run("only first five long words", func(t *testing.T) {
		got := ExtractKeywords("alpha beta gamma delta epsilon zeta theta", "", nil, bundles)
		assert.Equal(t, []string{"alpha", "beta", "gamma", "delta", "epsilon"}, got[:5])
		assert.NotContains(t, got, "zeta")
	})
}

func TestLoadBundlesFile(t *testing.T) {
	dir := t.TempDir()

	bundles, err := LoadBundlesFile(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBundles(), bundles)

	path := filepath.Join(dir, "project_types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: 1
project_types:
  game-engine: [webgl, "physics engine"]
  custom: [starter]
`), 0644))

	bundles, err = LoadBundlesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"webgl", "physics engine"}, bundles["game-engine"])
	assert.Equal(t, []string{"starter"}, bundles["custom"])
	assert.Contains(t, bundles.Types(), "quantum-os")

	require.NoError(t, os.WriteFile(path, []byte("project_types: [oops"), 0644))
	_, err = LoadBundlesFile(path)
	assert.Error(t, err)
}
