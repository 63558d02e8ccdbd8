package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/frontdesk/internal/config"
	"github.com/hyperjump/frontdesk/internal/vector"
)

func TestNew_providers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.EmbeddingConfig
		wantErr error
		model   string
	}{
		{"openai without key", config.EmbeddingConfig{Provider: "openai"}, ErrNoCredential, ""},
		{"default provider without key", config.EmbeddingConfig{}, ErrNoCredential, ""},
		{"gemini without key", config.EmbeddingConfig{Provider: "gemini"}, ErrNoCredential, ""},
		{"openai with key", config.EmbeddingConfig{Provider: "openai", APIKey: "sk-test"}, nil, DefaultOpenAIModel},
		{"openai custom model", config.EmbeddingConfig{APIKey: "k", Model: "text-embedding-3-large"}, nil, "text-embedding-3-large"},
		{"gemini with key", config.EmbeddingConfig{Provider: "Gemini", APIKey: "g-test"}, nil, DefaultGeminiModel},
		{"mock", config.EmbeddingConfig{Provider: "mock"}, nil, "mock-bow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(ctx, &tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if e.Model() != tt.model {
				t.Errorf("Model() = %q, want %q", e.Model(), tt.model)
			}
		})
	}
}

func TestNew_unknownProvider(t *testing.T) {
	if _, err := New(context.Background(), &config.EmbeddingConfig{Provider: "onnx"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(32)
	vecs, err := m.Embed(ctx, []string{"queen room available", "Queen room AVAILABLE", "twin suite", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 4 || len(vecs[0]) != 32 {
		t.Fatalf("unexpected shape %d x %d", len(vecs), len(vecs[0]))
	}
	if got := vector.CosineSimilarity(vecs[0], vecs[1]); math.Abs(got-1) > 1e-6 {
		t.Errorf("same tokens should embed identically, cosine = %v", got)
	}
	if vector.L2Norm(vecs[3]) != 0 {
		t.Error("empty text should embed to the zero vector")
	}
	if m.Calls() != 1 || m.Texts() != 4 {
		t.Errorf("Calls() = %d, Texts() = %d", m.Calls(), m.Texts())
	}

	boom := errors.New("boom")
	m.FailWith(boom)
	if _, err := m.Embed(ctx, []string{"x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want injected error", err)
	}
	m.FailWith(nil)
	if _, err := m.Embed(ctx, []string{"x"}); err != nil {
		t.Errorf("unexpected error after reset: %v", err)
	}
}
