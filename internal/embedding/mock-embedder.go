package embedding

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/hyperjump/frontdesk/internal/keyword"
	"github.com/hyperjump/frontdesk/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. Each token of the
// text is hashed into one dimension, so texts sharing words get similar vectors.
type MockEmbedder struct {
	dimensions int
	model      string

	mu    sync.Mutex
	calls int
	texts int
	err   error
}

// NewMockEmbedder returns an embedder that produces vectors of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEmbedder{dimensions: dimensions, model: "mock-bow"}
}

// WithModel changes the model id the mock reports.
func (e *MockEmbedder) WithModel(model string) *MockEmbedder {
	e.model = model
	return e
}

// FailWith makes subsequent calls return err; nil restores normal behaviour.
func (e *MockEmbedder) FailWith(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// Calls returns how many times Embed was invoked.
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Texts returns how many texts have been embedded in total.
func (e *MockEmbedder) Texts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.texts
}

// Embed returns a unit-length bag-of-words vector per text.
func (e *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	if err == nil {
		e.texts += len(texts)
	}
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *MockEmbedder) vector(text string) []float32 {
	emb := make([]float32, e.dimensions)
	for _, tok := range keyword.Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		emb[h.Sum32()%uint32(e.dimensions)]++
	}
	utils.NormalizeL2(emb)
	return emb
}

// Model returns the mock's model id.
func (e *MockEmbedder) Model() string {
	return e.model
}
