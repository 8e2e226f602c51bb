// Package github searches repositories through the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/relevance"
)

// ErrTokenMissing is returned when no GitHub token is configured.
var ErrTokenMissing = errors.New("GitHub token not configured")

// Client searches GitHub repositories
type Client struct {
	baseURL string
	token   string
	limiter *rate.Limiter
	client  *http.Client
}

// NewClient creates a client from configuration
func NewClient(cfg *config.GitHubConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrTokenMissing
	}

	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		limiter: rate.NewLimiter(limit, 1),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []searchItem `json:"items"`
}

type searchItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Topics      []string  `json:"topics"`
	UpdatedAt   time.Time `json:"updated_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// SearchRepositories returns the most-starred repositories matching keyword
func (c *Client) SearchRepositories(ctx context.Context, keyword string, perPage int) ([]relevance.Repository, error) {
	if perPage <= 0 {
		perPage = 5
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("q", keyword)
	query.Set("sort", "stars")
	query.Set("order", "desc")
	query.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/repositories?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	repos := make([]relevance.Repository, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		repos = append(repos, relevance.Repository{
			ID:          strconv.FormatInt(item.ID, 10),
			Name:        item.Name,
			FullName:    item.FullName,
			Owner:       item.Owner.Login,
			URL:         item.HTMLURL,
			Description: item.Description,
			Language:    item.Language,
			Stars:       item.Stars,
			Topics:      item.Topics,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return repos, nil
}
