package ai

import (
	"context"

	"movewell-assistant/models"
)

// Embedder turns text into a fixed-length vector. Blank text fails with
// ErrInvalidInput.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer answers an ordered conversation. The caller bounds the call
// with ctx.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}
