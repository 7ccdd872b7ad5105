package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ragchat/internal/domain"
)

var (
	ErrNoVectors         = errors.New("no vectors to index")
	ErrEmptyIndex        = errors.New("index is empty")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrIncompatibleIndex = errors.New("incompatible index")
)

// MetricCosine is the only supported similarity metric.
const MetricCosine = "cosine"

// Spec tags an index with the embedding setup it was built with. A loaded
// index is only usable with an embedder matching this tag.
type Spec struct {
	Model     string
	Dimension int
	Metric    string
}

// Index is an append-free in-memory vector index using brute-force cosine
// similarity. Built once, read-only thereafter.
type Index struct {
	spec    Spec
	chunks  []domain.Chunk
	vectors [][]float32
}

// Build constructs a searchable index from parallel chunk and vector slices.
func Build(chunks []domain.Chunk, vectors [][]float32, spec Spec) (*Index, error) {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if spec.Dimension == 0 {
		spec.Dimension = len(vectors[0])
	}
	if spec.Metric == "" {
		spec.Metric = MetricCosine
	}
	for i, v := range vectors {
		if len(v) != spec.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), spec.Dimension)
		}
	}
	return &Index{spec: spec, chunks: chunks, vectors: vectors}, nil
}

// Search returns the topK chunks nearest to vector, best first. If topK
// exceeds the index size, every indexed chunk is returned.
func (ix *Index) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	if len(ix.vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vector) != ix.spec.Dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(vector), ix.spec.Dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	results := make([]domain.SearchResult, len(ix.vectors))
	for i := range ix.vectors {
		results[i] = domain.SearchResult{
			Chunk: ix.chunks[i],
			Score: Cosine(vector, ix.vectors[i]),
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Spec returns the embedding tag the index was built with.
func (ix *Index) Spec() Spec { return ix.spec }

// Texts returns the indexed chunk texts in index order. Local embedders
// rebuild their vocabulary from these after a Load.
func (ix *Index) Texts() []string {
	texts := make([]string, len(ix.chunks))
	for i, c := range ix.chunks {
		texts[i] = c.Text
	}
	return texts
}

// Cosine computes the cosine similarity between two vectors.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}
