package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Embed returns an embedding vector for text using the configured Google
// embeddings model (text-embedding-004 by default).
func (gc *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text for embedding must be non-empty", ErrInvalidInput)
	}

	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.embedding_model", gc.embeddingModel),
		attribute.Int("gemini.input_chars", len(text)),
	)

	model := gc.client.EmbeddingModel(gc.embeddingModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, wrapError("embed", err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &ProviderError{Op: "embed", Err: errors.New("no embedding returned")}
	}

	// genai SDK returns []float32 for Embedding.Values
	return resp.Embedding.Values, nil
}

// EmbedAll embeds each text in order. It stops at the first failure.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
