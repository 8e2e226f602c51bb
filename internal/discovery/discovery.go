// Package discovery finds and ranks repositories relevant to a project.
package discovery

import (
	"context"
	"log"
	"time"

	"github.com/DreamCats/forgerag/internal/relevance"
)

// DefaultMaxResults caps the ranked list returned by Find.
const DefaultMaxResults = 20

// RepoSearcher looks up repositories for a single keyword
type RepoSearcher interface {
	SearchRepositories(ctx context.Context, keyword string, perPage int) ([]relevance.Repository, error)
}

// Request describes the project repositories are found for
type Request struct {
	Query       string   `json:"query"`
	ProjectType string   `json:"project_type"`
	TechStack   []string `json:"tech_stack"`
}

// Response holds the ranked repositories and the total before truncation
type Response struct {
	Keywords []string               `json:"keywords"`
	Repos    []relevance.Repository `json:"repos"`
	Total    int                    `json:"total"`
}

// Options tunes a Service
type Options struct {
	PerPage    int
	MaxResults int
	Now        func() time.Time
}

// Service searches every extracted keyword and scores the union
type Service struct {
	searcher RepoSearcher
	bundles  relevance.Bundles
	opts     Options
}

// NewService creates a discovery service. nil bundles use the defaults.
func NewService(searcher RepoSearcher, bundles relevance.Bundles, opts Options) *Service {
	if bundles == nil {
		bundles = relevance.DefaultBundles()
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 5
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{searcher: searcher, bundles: bundles, opts: opts}
}

// Find searches keywords one after another. A keyword whose search fails is
// logged and skipped; only cancellation stops the run.
func (s *Service) Find(ctx context.Context, req Request) (*Response, error) {
	keywords := relevance.ExtractKeywords(req.Query, req.ProjectType, req.TechStack, s.bundles)

	var all []relevance.Repository
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		repos, err := s.searcher.SearchRepositories(ctx, keyword, s.opts.PerPage)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: search for keyword %q failed: %v", keyword, err)
			continue
		}
		all = append(all, repos...)
	}

	scored := relevance.Score(all, relevance.Query{Keywords: keywords, TechStack: req.TechStack}, s.opts.Now())

	resp := &Response{Keywords: keywords, Repos: scored, Total: len(scored)}
	if len(resp.Repos) > s.opts.MaxResults {
		resp.Repos = resp.Repos[:s.opts.MaxResults]
	}
	return resp, nil
}
