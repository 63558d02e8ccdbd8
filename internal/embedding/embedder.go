// Package embedding turns text into vectors through a hosted embedding model, with
// rate-limited batching for indexing and caching for queries.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/frontdesk/internal/config"
)

// ErrNoCredential is returned when the configured provider has no API key.
var ErrNoCredential = errors.New("no embedding credential configured")

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model; the row index is rebuilt when it changes.
	Model() string
}

// New creates the embedder for cfg, wrapped in a Batcher.
// Returns ErrNoCredential when the provider needs a key and none is set.
func New(ctx context.Context, cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		base Embedder
		err  error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderOpenAI:
		base, err = NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.ProviderGemini:
		base, err = NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderMock:
		base = NewMockEmbedder(0)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, gemini, mock)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewBatcher(base, cfg.BatchSize, cfg.RequestsPerSecond), nil
}

func checkCount(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return nil
}
