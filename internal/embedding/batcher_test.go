package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fixedEmbedder struct {
	dims   []int
	calls  int
	result func(texts []string) [][]float32
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.result != nil {
		return f.result(texts), nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims[(f.calls-1)%len(f.dims)])
		out[i][0] = 1
	}
	return out, nil
}

func (f *fixedEmbedder) Model() string { return "fixed" }

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("row %d", i)
	}
	return out
}

func TestBatcher_splitsIntoBatches(t *testing.T) {
	m := NewMockEmbedder(8)
	b := NewBatcher(m, 2, 0)
	vecs, err := b.Embed(context.Background(), texts(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 5 {
		t.Errorf("got %d vectors, want 5", len(vecs))
	}
	if m.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3 batches", m.Calls())
	}
	if b.Model() != m.Model() {
		t.Errorf("Model() = %q", b.Model())
	}
}

func TestBatcher_defaultBatchSize(t *testing.T) {
	m := NewMockEmbedder(4)
	if _, err := NewBatcher(m, 0, 0).Embed(context.Background(), texts(DefaultBatchSize+1)); err != nil {
		t.Fatal(err)
	}
	if m.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", m.Calls())
	}
}

func TestBatcher_errors(t *testing.T) {
	ctx := context.Background()

	m := NewMockEmbedder(4)
	m.FailWith(errors.New("service down"))
	if _, err := NewBatcher(m, 10, 0).Embed(ctx, texts(3)); err == nil {
		t.Error("expected service error")
	}

	mixed := &fixedEmbedder{dims: []int{3, 4}}
	if _, err := NewBatcher(mixed, 1, 0).Embed(ctx, texts(2)); err == nil {
		t.Error("expected dimension mismatch error")
	}

	short := &fixedEmbedder{result: func(in []string) [][]float32 { return [][]float32{{1}} }}
	if _, err := NewBatcher(short, 10, 0).Embed(ctx, texts(2)); err == nil {
		t.Error("expected count mismatch error")
	}
}

func TestBatcher_rateLimitRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBatcher(NewMockEmbedder(4), 1, 0.001)
	if _, err := b.Embed(ctx, texts(2)); err == nil {
		t.Error("expected error from cancelled context")
	}
}
