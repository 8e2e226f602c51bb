package mcpserver

// RAGSearchInput defines inputs for the forgerag_rag_search MCP tool.
type RAGSearchInput struct {
	Query string `json:"query" jsonschema:"natural language description of what to look up"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of matches (default from config)"`
}

// RAGSource attributes a context passage to its repository file.
type RAGSource struct {
	RepoName  string  `json:"repo_name"`
	FilePath  string  `json:"file_path"`
	FileName  string  `json:"file_name"`
	Relevance float64 `json:"relevance"`
}

// RAGSearchOutput is the output for forgerag_rag_search.
type RAGSearchOutput struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Context []string    `json:"context"`
	Sources []RAGSource `json:"sources"`
	Warning string      `json:"warning,omitempty"`
}

// ScoreReposInput defines inputs for the forgerag_score_repos MCP tool.
type ScoreReposInput struct {
	Query       string   `json:"query,omitempty" jsonschema:"free text describing the project"`
	ProjectType string   `json:"project_type,omitempty" jsonschema:"project type keyword bundle, e.g. ai-chatbot or dashboard"`
	TechStack   []string `json:"tech_stack,omitempty" jsonschema:"technologies the project uses"`
	Offline     bool     `json:"offline,omitempty" jsonschema:"search the local catalog instead of GitHub"`
}

// ScoredRepo is a ranked repository candidate.
type ScoredRepo struct {
	FullName    string   `json:"full_name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Stars       int      `json:"stars"`
	Topics      []string `json:"topics"`
	UpdatedAt   string   `json:"updated_at"`
	Score       float64  `json:"score"`
}

// ScoreReposOutput is the output for forgerag_score_repos.
type ScoreReposOutput struct {
	Keywords []string     `json:"keywords"`
	Total    int          `json:"total"`
	Repos    []ScoredRepo `json:"repos"`
}

// StatsInput defines inputs for the forgerag_stats MCP tool.
type StatsInput struct {
	Top int `json:"top,omitempty" jsonschema:"size of the top repository and language lists (default 4)"`
}

// StatsBucket is one entry of a top-N breakdown.
type StatsBucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsOutput is the output for forgerag_stats.
type StatsOutput struct {
	TotalDocuments  int           `json:"total_documents"`
	Repositories    int64         `json:"repositories"`
	Files           int64         `json:"files"`
	BacklogItems    int64         `json:"backlog_items"`
	DatabaseSize    string        `json:"database_size"`
	VectorBackend   string        `json:"vector_backend"`
	TopRepositories []StatsBucket `json:"top_repositories"`
	TopLanguages    []StatsBucket `json:"top_languages"`
	Searches        int           `json:"searches"`
	AvgSearchTime   string        `json:"avg_search_time"`
	HasEmbeddings   bool          `json:"has_embeddings"`
}
