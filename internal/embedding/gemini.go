package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/frontdesk/internal/config"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the gemini provider has no model configured.
const DefaultGeminiModel = config.DefaultGeminiModel

// GeminiEmbedder calls the Gemini API embedContent method.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder for apiKey.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	if model == "" || model == DefaultOpenAIModel {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// Embed sends all texts as separate contents of one request.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	out := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("gemini embeddings: nil embedding in response")
		}
		out = append(out, emb.Values)
	}
	if err := checkCount(texts, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Model returns the configured model id.
func (e *GeminiEmbedder) Model() string {
	return e.model
}
