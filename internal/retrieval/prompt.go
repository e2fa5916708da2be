package retrieval

import (
	"context"
	"strings"
	"time"

	"movewell-assistant/internal/ai"
	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/models"
)

const (
	promptPreamble = "You are an AI assistant responding to the user's question using the most relevant context below.\n" +
		"Use the sources to support your answer clearly.\n\n"
	questionLabel = "User Question: "
	answerCue     = "Answer:"
)

// PromptBuilder turns a user question into an instruction-style prompt
// grounded on the nearest knowledge-base documents.
type PromptBuilder struct {
	embedder     ai.Embedder
	index        *Index
	documents    []models.Document
	topK         int
	snippetLimit int
	embedTimeout time.Duration
	metrics      *telemetry.Metrics
}

type PromptOptions struct {
	TopK         int
	SnippetLimit int
	EmbedTimeout time.Duration
}

// NewPromptBuilder pairs documents[i] with the i-th vector of index.
func NewPromptBuilder(embedder ai.Embedder, index *Index, documents []models.Document, opts PromptOptions, metrics *telemetry.Metrics) *PromptBuilder {
	if opts.SnippetLimit <= 0 {
		opts.SnippetLimit = 1000
	}
	return &PromptBuilder{
		embedder:     embedder,
		index:        index,
		documents:    documents,
		topK:         opts.TopK,
		snippetLimit: opts.SnippetLimit,
		embedTimeout: opts.EmbedTimeout,
		metrics:      metrics,
	}
}

// Build never fails: when retrieval does, the prompt simply carries no
// sources.
func (b *PromptBuilder) Build(ctx context.Context, query string) string {
	docs := b.retrieve(ctx, query)

	snippets := make([]string, 0, len(docs))
	for _, doc := range docs {
		snippets = append(snippets, "Source: "+doc.Title+"\n"+truncateRunes(doc.Content, b.snippetLimit))
	}

	var prompt strings.Builder
	prompt.WriteString(promptPreamble)
	prompt.WriteString(strings.Join(snippets, "\n\n"))
	prompt.WriteString("\n\n")
	prompt.WriteString(questionLabel)
	prompt.WriteString(query)
	prompt.WriteString("\n\n")
	prompt.WriteString(answerCue)
	return prompt.String()
}

func (b *PromptBuilder) retrieve(ctx context.Context, query string) []models.Document {
	if b.index == nil || b.index.Len() == 0 || b.topK <= 0 {
		return nil
	}

	embedCtx := ctx
	if b.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, b.embedTimeout)
		defer cancel()
	}

	vec, err := b.embedder.Embed(embedCtx, query)
	if err != nil {
		kind := ai.KindOf(err)
		b.metrics.RecordProviderFailure(ctx, "embed", string(kind))
		logger.Warn("Failed to retrieve relevant articles", "stage", "embed", "kind", kind, "error", err)
		return nil
	}

	matches, err := b.index.Search(vec, b.topK)
	if err != nil {
		logger.Warn("Failed to retrieve relevant articles", "stage", "search", "error", err)
		return nil
	}

	docs := make([]models.Document, 0, len(matches))
	for _, m := range matches {
		if m.Document < 0 || m.Document >= len(b.documents) {
			continue
		}
		docs = append(docs, b.documents[m.Document])
	}
	logger.Debug("Retrieved articles", "count", len(docs))
	return docs
}

// truncateRunes keeps at most limit characters of s.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
