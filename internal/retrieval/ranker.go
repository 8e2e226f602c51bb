package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/DreamCats/forgerag/internal/embedding"
	"github.com/DreamCats/forgerag/internal/store"
)

const (
	// DefaultLimit is the number of matches returned when no limit is given.
	DefaultLimit = 10
	// DefaultThreshold is the minimum similarity a match must exceed.
	DefaultThreshold = 0.7
)

// SearchOptions controls a similarity search
type SearchOptions struct {
	Limit     int     // <= 0 means DefaultLimit
	Threshold float64 // scores must be strictly greater
}

// DefaultSearchOptions returns limit 10, threshold 0.7.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: DefaultLimit, Threshold: DefaultThreshold}
}

// Match is a document with its cosine similarity to the query
type Match struct {
	Document store.Document
	Score    float64
}

// Ranker runs brute-force cosine search over a VectorIndex
type Ranker struct {
	index store.VectorIndex
}

// NewRanker creates a ranker over index
func NewRanker(index store.VectorIndex) *Ranker {
	return &Ranker{index: index}
}

// Search returns at most opts.Limit documents scoring above opts.Threshold,
// best first. Equal scores keep index order. Documents whose vector length
// differs from the query score 0 and are counted in a warning.
func (r *Ranker) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var matches []Match
	mismatched := 0
	err := r.index.Scan(ctx, func(doc store.Document) error {
		if len(doc.Embedding) != len(query) {
			mismatched++
		}
		score := embedding.CosineSimilarity(query, doc.Embedding)
		if score > opts.Threshold {
			matches = append(matches, Match{Document: doc, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan index: %w", err)
	}
	if mismatched > 0 {
		log.Printf("Warning: %d stored documents do not have %d dimensions like the query; re-run embed after changing the model",
			mismatched, len(query))
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}
