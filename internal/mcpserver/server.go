package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DreamCats/forgerag/internal/discovery"
	"github.com/DreamCats/forgerag/internal/indexer"
)

// Server exposes forgerag retrieval and repository scoring via MCP stdio.
type Server struct {
	idx     *indexer.Indexer
	version string
}

// New creates a new MCP server wrapper.
func New(idx *indexer.Indexer, version string) *Server {
	return &Server{
		idx:     idx,
		version: version,
	}
}

// Run starts the MCP stdio server.
func (s *Server) Run(ctx context.Context) error {
	return s.build().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "forgerag",
		Title:   "ForgeRAG",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "forgerag_rag_search",
		Description: `Retrieve passages from embedded repository READMEs and docs that are semantically close to a query.

Returns the passage texts as context plus the repository files they came from.
Passages below the configured similarity threshold are left out, so an empty
result means nothing relevant is indexed.`,
	}, s.ragSearchTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "forgerag_score_repos",
		Description: `Find open source repositories for a project and rank them by relevance.

Keywords come from the tech stack, the project type bundle and the query.
Each repository is scored on tech stack matches (name, description, language,
topics), keyword matches, stars and recent activity. Set offline to search the
local catalog of imported repositories instead of GitHub.`,
	}, s.scoreReposTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "forgerag_stats",
		Description: "Report how many documents are embedded, the top repositories and languages, and search timings.",
	}, s.statsTool)

	return server
}

func (s *Server) ragSearchTool(ctx context.Context, _ *mcp.CallToolRequest, input RAGSearchInput) (*mcp.CallToolResult, RAGSearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, RAGSearchOutput{}, fmt.Errorf("query is required")
	}

	retriever := s.idx.Retriever()
	output := RAGSearchOutput{Query: query, Context: []string{}, Sources: []RAGSource{}}
	if err := retriever.Check(); err != nil {
		output.Warning = err.Error()
		return nil, output, nil
	}

	limit := pickInt(input.Limit, s.idx.Config().Search.RAGLimit)
	result := retriever.Retrieve(ctx, query, limit)
	output.Context = result.Context
	for _, src := range result.Sources {
		output.Sources = append(output.Sources, RAGSource{
			RepoName:  src.RepoName,
			FilePath:  src.FilePath,
			FileName:  src.FileName,
			Relevance: src.Relevance,
		})
	}
	output.Count = len(output.Context)
	return nil, output, nil
}

func (s *Server) scoreReposTool(ctx context.Context, _ *mcp.CallToolRequest, input ScoreReposInput) (*mcp.CallToolResult, ScoreReposOutput, error) {
	resp, err := s.idx.Discover(ctx, discovery.Request{
		Query:       input.Query,
		ProjectType: input.ProjectType,
		TechStack:   input.TechStack,
	}, input.Offline)
	if err != nil {
		return nil, ScoreReposOutput{}, err
	}

	output := ScoreReposOutput{
		Keywords: ensureStringSlice(resp.Keywords),
		Total:    resp.Total,
		Repos:    make([]ScoredRepo, 0, len(resp.Repos)),
	}
	for _, repo := range resp.Repos {
		item := ScoredRepo{
			FullName:    repo.FullName,
			URL:         repo.URL,
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.Stars,
			Topics:      ensureStringSlice(repo.Topics),
			Score:       repo.RelevanceScore,
		}
		if !repo.UpdatedAt.IsZero() {
			item.UpdatedAt = repo.UpdatedAt.UTC().Format(time.RFC3339)
		}
		output.Repos = append(output.Repos, item)
	}
	return nil, output, nil
}

func (s *Server) statsTool(ctx context.Context, _ *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.idx.Stats(ctx, input.Top)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		TotalDocuments:  stats.Index.TotalDocuments,
		Repositories:    stats.DB.RepositoryCount,
		Files:           stats.DB.FileCount,
		BacklogItems:    stats.DB.BacklogCount,
		DatabaseSize:    formatBytes(stats.DB.SizeBytes),
		VectorBackend:   stats.Backend,
		TopRepositories: make([]StatsBucket, 0, len(stats.Index.TopRepositories)),
		TopLanguages:    make([]StatsBucket, 0, len(stats.Index.TopLanguages)),
		Searches:        stats.Searches,
		AvgSearchTime:   stats.AvgSearchTime.String(),
		HasEmbeddings:   s.idx.Retriever().Check() == nil,
	}
	for _, b := range stats.Index.TopRepositories {
		output.TopRepositories = append(output.TopRepositories, StatsBucket{Name: b.Name, Count: b.Count})
	}
	for _, b := range stats.Index.TopLanguages {
		output.TopLanguages = append(output.TopLanguages, StatsBucket{Name: b.Name, Count: b.Count})
	}
	return nil, output, nil
}
