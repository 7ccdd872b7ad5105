package retrieval

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Name() string                 { return "fake" }
func (f *fakeEmbedder) Prepare(corpus []string) error { return nil }
func (f *fakeEmbedder) Dimension() int               { return len(f.vec) }
func (f *fakeEmbedder) Embed(text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeSearcher struct {
	results  []domain.SearchResult
	err      error
	gotTopK  int
	gotQuery []float32
}

func (f *fakeSearcher) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	f.gotQuery = vector
	f.gotTopK = topK
	return f.results, f.err
}

func TestRetrievePassesVectorAndK(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0.1, 0.9}}
	searcher := &fakeSearcher{results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "first"}, Score: 0.9},
	}}

	ctx, err := NewPipeline(emb, searcher, 7).Retrieve("question")
	require.NoError(t, err)
	assert.Equal(t, emb.vec, searcher.gotQuery)
	assert.Equal(t, 7, searcher.gotTopK)
	require.Len(t, ctx.Results, 1)
}

func TestRetrieveDefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	_, err := NewPipeline(&fakeEmbedder{vec: []float32{1}}, searcher, 0).Retrieve("q")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, searcher.gotTopK)
}

func TestRetrieveErrorPropagation(t *testing.T) {
	embedErr := errors.New("embed down")
	_, err := NewPipeline(&fakeEmbedder{err: embedErr}, &fakeSearcher{}, 3).Retrieve("q")
	require.ErrorIs(t, err, embedErr)

	searchErr := errors.New("index down")
	_, err = NewPipeline(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{err: searchErr}, 3).Retrieve("q")
	require.ErrorIs(t, err, searchErr)
}

func TestContextPromptOrdinalLabels(t *testing.T) {
	ctx := Context{Results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "alpha text"}, Score: 0.9},
		{Chunk: domain.Chunk{Text: "beta text"}, Score: 0.5},
		{Chunk: domain.Chunk{Text: "gamma text"}, Score: 0.1},
	}}

	prompt := ctx.Prompt()
	assert.Contains(t, prompt, "Document 1:\nalpha text")
	assert.Contains(t, prompt, "Document 2:\nbeta text")
	assert.Contains(t, prompt, "Document 3:\ngamma text")
	assert.Less(t, strings.Index(prompt, "Document 1:"), strings.Index(prompt, "Document 2:"))
	assert.Less(t, strings.Index(prompt, "Document 2:"), strings.Index(prompt, "Document 3:"))
}

func TestContextPromptEmpty(t *testing.T) {
	assert.Empty(t, Context{}.Prompt())
}
