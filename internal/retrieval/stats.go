package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/DreamCats/forgerag/internal/store"
)

// Bucket is a label with the number of documents carrying it
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// IndexStats summarises what the vector index holds
type IndexStats struct {
	TotalDocuments  int      `json:"total_documents"`
	TopRepositories []Bucket `json:"top_repositories"`
	TopLanguages    []Bucket `json:"top_languages"`
}

// Stats counts documents per repository and per language and keeps the
// topN of each (4 when topN <= 0).
func Stats(ctx context.Context, index store.VectorIndex, topN int) (*IndexStats, error) {
	if topN <= 0 {
		topN = 4
	}

	repos := newCounter()
	langs := newCounter()
	total := 0

	err := index.Scan(ctx, func(doc store.Document) error {
		total++
		repos.add(doc.Metadata.RepoName)
		langs.add(doc.Metadata.Language)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan index: %w", err)
	}

	return &IndexStats{
		TotalDocuments:  total,
		TopRepositories: repos.top(topN),
		TopLanguages:    langs.top(topN),
	}, nil
}

type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if name == "" {
		name = "unknown"
	}
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

// top sorts by count descending; ties keep first-seen order.
func (c *counter) top(n int) []Bucket {
	buckets := make([]Bucket, 0, len(c.order))
	for _, name := range c.order {
		buckets = append(buckets, Bucket{Name: name, Count: c.counts[name]})
	}
	slices.SortStableFunc(buckets, func(a, b Bucket) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

// SearchLog tracks how many searches ran and how long they took on average.
// It is safe for concurrent use.
type SearchLog struct {
	mu    sync.Mutex
	count int
	total time.Duration
}

// Record adds one search taking d
func (l *SearchLog) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	l.total += d
}

// Snapshot returns the search count and mean duration
func (l *SearchLog) Snapshot() (int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return 0, 0
	}
	return l.count, l.total / time.Duration(l.count)
}
