package retrieval

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/DreamCats/forgerag/internal/embedding"
)

// DefaultRAGLimit is the number of matches a RAG lookup asks for.
const DefaultRAGLimit = 5

// Embedder turns query text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// dimensioned is implemented by embedders that know their vector size.
type dimensioned interface {
	Dimensions() int
}

// Source attributes a RAG match to the file it came from
type Source struct {
	RepoName  string  `json:"repo_name"`
	FilePath  string  `json:"file_path"`
	FileName  string  `json:"file_name"`
	Relevance float64 `json:"relevance"`
}

// Result is the grounding material for one RAG query.
// Context holds the text of every match; Sources only covers matches whose
// metadata names both a repository and a file, so it may be shorter.
type Result struct {
	Context []string `json:"context"`
	Sources []Source `json:"sources"`
}

// Retriever embeds a query and projects ranked matches into a Result
type Retriever struct {
	embedder  Embedder
	ranker    *Ranker
	threshold float64
	searches  *SearchLog
}

// NewRetriever creates a retriever. embedder may be nil when no provider is
// configured; Retrieve then yields empty results and Check reports why.
func NewRetriever(embedder Embedder, ranker *Ranker, threshold float64, searches *SearchLog) *Retriever {
	if searches == nil {
		searches = &SearchLog{}
	}
	return &Retriever{
		embedder:  embedder,
		ranker:    ranker,
		threshold: threshold,
		searches:  searches,
	}
}

// Check reports configuration problems that make every Retrieve call empty.
func (r *Retriever) Check() error {
	if r.embedder == nil {
		return embedding.ErrEmbeddingUnavailable
	}
	return nil
}

// Searches exposes the query log shared with this retriever
func (r *Retriever) Searches() *SearchLog {
	return r.searches
}

// Search embeds queryText and ranks stored documents against it. It fails
// with embedding.ErrEmbeddingUnavailable when no embedder is configured.
func (r *Retriever) Search(ctx context.Context, queryText string, opts SearchOptions) ([]Match, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { r.searches.Record(time.Since(start)) }()

	vector, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if d, ok := r.embedder.(dimensioned); ok {
		if want := d.Dimensions(); want > 0 && want != len(vector) {
			log.Printf("Warning: query embedding has %d dimensions, the embedding model is configured for %d", len(vector), want)
		}
	}

	return r.ranker.Search(ctx, vector, opts)
}

// Retrieve finds context for queryText. Failures are logged and produce an
// empty Result rather than an error.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, limit int) Result {
	if limit <= 0 {
		limit = DefaultRAGLimit
	}

	empty := Result{Context: []string{}, Sources: []Source{}}
	matches, err := r.Search(ctx, queryText, SearchOptions{Limit: limit, Threshold: r.threshold})
	if err != nil {
		log.Printf("Warning: RAG retrieval failed: %v", err)
		return empty
	}

	result := empty
	for _, m := range matches {
		result.Context = append(result.Context, m.Document.Text)

		meta := m.Document.Metadata
		if meta.RepoName == "" || meta.FileName == "" {
			continue
		}
		filePath := meta.FilePath
		if filePath == "" {
			filePath = "unknown"
		}
		result.Sources = append(result.Sources, Source{
			RepoName:  meta.RepoName,
			FilePath:  filePath,
			FileName:  meta.FileName,
			Relevance: m.Score,
		})
	}

	return result
}
