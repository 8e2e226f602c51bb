package embedding

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/DreamCats/forgerag/internal/config"
)

// ErrEmbeddingUnavailable means no embedding provider can be reached with the
// current configuration (for example a missing API key).
var ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

// Service provides embedding generation functionality
type Service struct {
	cfg    *config.EmbeddingConfig
	client Client
}

// Client is the interface for embedding API clients
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// NewService creates a new embedding service
func NewService(cfg *config.EmbeddingConfig) (*Service, error) {
	var client Client
	var err error

	switch cfg.Provider {
	case "openai", "volcengine":
		// VolcEngine Ark exposes an OpenAI-compatible endpoint.
		client, err = NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	return NewServiceWithClient(cfg, client), nil
}

// NewServiceWithClient wraps an existing client, used by tests and callers
// that bring their own provider.
func NewServiceWithClient(cfg *config.EmbeddingConfig, client Client) *Service {
	if cfg == nil {
		cfg = &config.EmbeddingConfig{}
	}
	return &Service{cfg: cfg, client: client}
}

// Embed generates an embedding for a single text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	return s.client.Embed(ctx, text)
}

// EmbedBatch embeds texts in requests of at most batch_size inputs. The
// result lines up with texts. An empty text is rejected before any request.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i := slices.Index(texts, ""); i >= 0 {
		return nil, fmt.Errorf("cannot embed empty text at index %d", i)
	}

	vectors := make([][]float32, 0, len(texts))
	for part := range slices.Chunk(texts, max(s.cfg.BatchSize, 1)) {
		out, err := s.client.EmbedBatch(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %d texts: %w", len(part), err)
		}
		if len(out) != len(part) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(part), len(out))
		}
		vectors = append(vectors, out...)
	}
	return vectors, nil
}

// Dimensions returns the vector size the provider produces, or 0 when the
// configured model does not have a known size.
func (s *Service) Dimensions() int {
	return s.client.Dimensions()
}
