package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Diwali is celebrated with lamps and sweets.",
	"Holi is celebrated with colors in spring.",
	"Kerala cuisine features coconut and rice dishes.",
}

func TestTFIDFPrepareAndEmbed(t *testing.T) {
	e := NewTFIDFEmbedder()
	_, err := e.Embed("anything")
	require.Error(t, err, "embedding before prepare must fail")

	require.NoError(t, e.Prepare(corpus))
	require.Greater(t, e.Dimension(), 0)

	vec, err := e.Embed("lamps and sweets for Diwali")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, float64(norm), 1e-5, "vectors must be L2-normalized")
}

func TestTFIDFUnknownTokensYieldZeroVector(t *testing.T) {
	e := NewTFIDFEmbedder()
	require.NoError(t, e.Prepare(corpus))
	vec, err := e.Embed("zzz qqq xxx")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

// A loaded index is queried by an embedder re-prepared on the stored
// corpus, so preparing twice on the same corpus must reproduce vectors.
func TestTFIDFReproducibleOverSameCorpus(t *testing.T) {
	a := NewTFIDFEmbedder()
	require.NoError(t, a.Prepare(corpus))
	b := NewTFIDFEmbedder()
	require.NoError(t, b.Prepare(corpus))

	require.Equal(t, a.Dimension(), b.Dimension())
	va, err := a.Embed(corpus[0])
	require.NoError(t, err)
	vb, err := b.Embed(corpus[0])
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestTFIDFEmptyCorpus(t *testing.T) {
	require.Error(t, NewTFIDFEmbedder().Prepare(nil))
}
