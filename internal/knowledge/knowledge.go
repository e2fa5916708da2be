package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"movewell-assistant/models"
)

//go:embed articles.json
var defaultArticles []byte

// Load returns the knowledge-base documents: from path when set, otherwise
// the articles built into the binary. Documents with blank content are
// dropped so that every returned document can be embedded.
func Load(path string) ([]models.Document, error) {
	data := defaultArticles
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge file: %w", err)
		}
		data = raw
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode knowledge file: %w", err)
	}

	kept := docs[:0]
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		kept = append(kept, doc)
	}
	return kept, nil
}

// Contents returns the document bodies in order, ready to embed.
func Contents(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.Content
	}
	return out
}
