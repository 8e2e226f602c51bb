// Package ingest chunks scraped repositories and stores their embeddings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DreamCats/forgerag/internal/chunk"
	"github.com/DreamCats/forgerag/internal/embedding"
	"github.com/DreamCats/forgerag/internal/store"
)

// Document types written to metadata.
const (
	TypeDocumentation = "documentation"
	TypeSource        = "source"
)

const readmeFileName = "README.md"

// Embedder turns text into vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Options controls what gets embedded and how
type Options struct {
	MaxChunkSize int      // <= 0 uses chunk.DefaultMaxChunkSize
	Workers      int      // <= 1 embeds sequentially
	BatchSize    int      // chunks per request within one repository; <= 1 sends them one by one
	Include      []string // doublestar patterns over repository file paths
	EmbedReadme  bool
}

// Result counts what a run stored
type Result struct {
	Repositories int
	Chunks       int
	Added        int
	Failed       int
	Duration     time.Duration
}

// BatchError reports chunks that were skipped during a run.
// The chunks that succeeded are stored regardless.
type BatchError struct {
	Failed int
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d chunks failed to embed", e.Failed, e.Total)
}

// Pipeline embeds repository text into a vector index
type Pipeline struct {
	embedder Embedder
	index    store.VectorIndex
	opts     Options
	filter   *pathFilter
	progress ProgressReporter
}

// NewPipeline creates an ingest pipeline; progress may be nil.
func NewPipeline(embedder Embedder, index store.VectorIndex, opts Options, progress ProgressReporter) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	return &Pipeline{
		embedder: embedder,
		index:    index,
		opts:     opts,
		filter:   newPathFilter(opts.Include),
		progress: progress,
	}
}

type task struct {
	id       string
	text     string
	metadata store.Metadata
}

// EmbedRepositories chunks, embeds and stores every selected text of repos.
//
// Chunks of one repository are sent together in batches of BatchSize. A
// failed batch is retried one chunk at a time, and a chunk whose embedding
// or insert still fails is logged and skipped. When any chunk fails the
// returned error is a *BatchError and the Result still counts what was
// stored. Cancellation and embedding.ErrEmbeddingUnavailable abort the run.
func (p *Pipeline) EmbedRepositories(ctx context.Context, repos []*store.Repository) (*Result, error) {
	start := time.Now()

	var batches [][]task
	result := &Result{Repositories: len(repos)}
	for _, repo := range repos {
		tasks := p.plan(repo)
		result.Chunks += len(tasks)
		for batch := range slices.Chunk(tasks, p.opts.BatchSize) {
			batches = append(batches, batch)
		}
	}
	log.Printf("Embedding %d chunks from %d repositories (workers=%d, batch=%d)",
		result.Chunks, len(repos), p.opts.Workers, p.opts.BatchSize)

	if p.progress != nil {
		p.progress.Start(result.Chunks)
		defer p.progress.Finish()
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for _, batch := range batches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			added, failed, err := p.embedBatch(gctx, batch)
			if p.progress != nil {
				for range batch {
					p.progress.Increment()
				}
			}

			mu.Lock()
			defer mu.Unlock()
			result.Added += added
			result.Failed += failed
			return err
		})
	}

	err := g.Wait()
	result.Duration = time.Since(start)
	if err == nil {
		err = ctx.Err()
	}
	if errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		return result, fmt.Errorf("embedding stopped: %w", err)
	}
	if err != nil {
		return result, fmt.Errorf("embedding interrupted: %w", err)
	}

	log.Printf("Embedded %d/%d chunks in %v", result.Added, result.Chunks, result.Duration)
	if result.Failed > 0 {
		return result, &BatchError{Failed: result.Failed, Total: result.Chunks}
	}
	return result, nil
}

// embedBatch stores one batch and counts the outcome. The error is only set
// when the whole run has to stop.
func (p *Pipeline) embedBatch(ctx context.Context, batch []task) (added, failed int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if len(batch) > 1 {
		texts := make([]string, len(batch))
		for i, t := range batch {
			texts[i] = t.text
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
		}
		if err == nil {
			for i, t := range batch {
				if err := p.insert(ctx, t, vectors[i]); err != nil {
					log.Printf("Warning: failed to store chunk %s: %v", t.id, err)
					failed++
					continue
				}
				added++
			}
			return added, failed, nil
		}
		if stop := stopError(ctx, err); stop != nil {
			return 0, 0, stop
		}
		log.Printf("Warning: batch of %d chunks failed, retrying one by one: %v", len(batch), err)
	}

	for _, t := range batch {
		vector, err := p.embedder.Embed(ctx, t.text)
		if err != nil {
			if stop := stopError(ctx, err); stop != nil {
				return added, failed, stop
			}
			log.Printf("Warning: failed to embed chunk %s: %v", t.id, err)
			failed++
			continue
		}
		if err := p.insert(ctx, t, vector); err != nil {
			log.Printf("Warning: failed to store chunk %s: %v", t.id, err)
			failed++
			continue
		}
		added++
	}
	return added, failed, nil
}

// stopError returns the error that ends the run, or nil when err only
// concerns the chunks at hand.
func stopError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		return err
	}
	return nil
}

func (p *Pipeline) insert(ctx context.Context, t task, vector []float32) error {
	return p.index.Insert(ctx, store.Document{
		ID:        t.id,
		Text:      t.text,
		Embedding: vector,
		Metadata:  t.metadata,
	})
}

// plan lists the chunks of one repository. IDs are derived from the
// repository, file and chunk position so reruns overwrite earlier vectors.
func (p *Pipeline) plan(repo *store.Repository) []task {
	language := repo.Language
	if language == "" {
		language = "unknown"
	}

	var tasks []task
	add := func(key, text string, meta store.Metadata) {
		for i, c := range chunk.Split(text, p.opts.MaxChunkSize) {
			tasks = append(tasks, task{
				id:       repo.FullName + ":" + key + ":" + strconv.Itoa(i),
				text:     c,
				metadata: meta,
			})
		}
	}

	readmeEmbedded := p.opts.EmbedReadme && repo.Readme != ""
	if readmeEmbedded {
		add("readme", repo.Readme, store.Metadata{
			RepoID:   repo.ID,
			RepoName: repo.FullName,
			FileName: readmeFileName,
			Language: language,
			Type:     TypeDocumentation,
		})
	}

	for _, f := range repo.Files {
		if f.Type == "dir" || f.Content == "" || !p.filter.Match(f.Path) {
			continue
		}
		if readmeEmbedded && strings.EqualFold(f.Path, readmeFileName) {
			continue
		}
		fileLanguage := f.Language
		if fileLanguage == "" {
			fileLanguage = language
		}
		add(f.Path, f.Content, store.Metadata{
			RepoID:   repo.ID,
			RepoName: repo.FullName,
			FilePath: f.Path,
			FileName: f.Name,
			Language: fileLanguage,
			Type:     docType(f.Path),
		})
	}

	return tasks
}
