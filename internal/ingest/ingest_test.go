package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeText(n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = rune('a' + (i*7+i/26)%26)
	}
	return string(runes)
}

func TestSplitTextBoundaries(t *testing.T) {
	chunks := SplitText(makeText(1200), 500, 50)

	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 500)
	assert.Len(t, []rune(chunks[1]), 500)
	assert.Len(t, []rune(chunks[2]), 300)
}

func TestSplitTextOverlap(t *testing.T) {
	text := makeText(2345)
	chunks := SplitText(text, 500, 50)

	for i := 0; i < len(chunks)-1; i++ {
		cur := []rune(chunks[i])
		next := []rune(chunks[i+1])
		assert.Equal(t, string(cur[len(cur)-50:]), string(next[:50]),
			"chunks %d and %d must share the overlap", i, i+1)
	}
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 500, "chunk %d exceeds max size", i)
	}
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0])

	assert.Nil(t, SplitText("   ", 500, 50))
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte(makeText(1200)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.pdf"), []byte("binary"), 0o644))

	chunks, err := NewLoader(500, 50).Load(dir)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, "doc.txt", c.SourceID)
		assert.Equal(t, i+1, c.Page)
	}
}

func TestLoaderMissingFolder(t *testing.T) {
	_, err := NewLoader(500, 50).Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoaderNoDocuments(t *testing.T) {
	_, err := NewLoader(500, 50).Load(t.TempDir())
	require.ErrorIs(t, err, ErrNoDocuments)
}
