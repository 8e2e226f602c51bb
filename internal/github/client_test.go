package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/forgerag/internal/config"
)

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(&config.GitHubConfig{})
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestSearchRepositories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "quantum computing", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_count": 1,
			"items": [{
				"id": 42,
				"name": "qiskit",
				"full_name": "Qiskit/qiskit",
				"html_url": "https://github.com/Qiskit/qiskit",
				"description": null,
				"language": "Python",
				"stargazers_count": 5000,
				"topics": ["quantum"],
				"updated_at": "2026-09-30T08:00:00Z",
				"owner": {"login": "Qiskit"}
			}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(&config.GitHubConfig{Token: "secret", APIURL: server.URL + "/"})
	require.NoError(t, err)

	repos, err := client.SearchRepositories(context.Background(), "quantum computing", 0)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	repo := repos[0]
	assert.Equal(t, "42", repo.ID)
	assert.Equal(t, "Qiskit", repo.Owner)
	assert.Empty(t, repo.Description)
	assert.Equal(t, []string{"quantum"}, repo.Topics)
	assert.Equal(t, time.Date(2026, 9, 30, 8, 0, 0, 0, time.UTC), repo.UpdatedAt)
}

func TestSearchRepositoriesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient(&config.GitHubConfig{Token: "secret", APIURL: server.URL})
	require.NoError(t, err)

	_, err = client.SearchRepositories(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
