package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Generator.APIKeyEnv)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := &AppConfig{
		Embedder:  EmbedderConfig{Type: "tfidf"},
		Chunker:   ChunkerConfig{Size: 200, Overlap: 20},
		Index:     IndexConfig{Type: "memory", Path: "idx"},
		Retrieval: RetrievalConfig{TopK: 5},
	}
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tfidf", got.Embedder.Type)
	assert.Equal(t, 200, got.Chunker.Size)
	assert.Equal(t, 20, got.Chunker.Overlap)
	assert.Equal(t, "idx", got.Index.Path)
	assert.Equal(t, 5, got.Retrieval.TopK)
}
