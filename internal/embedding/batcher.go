package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// DefaultBatchSize bounds how many texts go into one embedding request.
const DefaultBatchSize = 100

// Batcher splits large inputs into bounded requests, optionally rate limited, and checks
// that every returned vector has the same dimensionality.
type Batcher struct {
	embedder  Embedder
	batchSize int
	limiter   *rate.Limiter
}

// NewBatcher wraps e. requestsPerSecond <= 0 disables rate limiting.
func NewBatcher(e Embedder, batchSize int, requestsPerSecond float64) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	b := &Batcher{embedder: e, batchSize: batchSize}
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return b
}

// Embed embeds texts batch by batch. Any batch failure fails the whole call.
func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	dims := -1
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}
		batch := texts[start:end]
		vectors, err := b.embedder.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if err := checkCount(batch, vectors); err != nil {
			return nil, err
		}
		for _, v := range vectors {
			if dims < 0 {
				dims = len(v)
			}
			if len(v) != dims || dims == 0 {
				return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(v), dims)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// Model returns the wrapped embedder's model id.
func (b *Batcher) Model() string {
	return b.embedder.Model()
}
