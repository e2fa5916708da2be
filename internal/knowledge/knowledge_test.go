package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	docs, err := Load("")
	require.NoError(t, err)

	assert.Len(t, docs, 3)
	for _, doc := range docs {
		assert.NotEmpty(t, doc.Title)
		assert.NotEmpty(t, doc.Content)
	}
	assert.Len(t, Contents(docs), 3)
}

func TestLoad_FileSkipsBlankContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"title": "a", "content": "alpha"},
		{"title": "b", "content": "   "},
		{"title": "c", "content": "gamma"}
	]`), 0o644))

	docs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[1].Title)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
