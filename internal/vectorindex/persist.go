package vectorindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"ragchat/internal/domain"
)

const indexFileName = "index.gob"

// indexFile is the on-disk layout: the embedding tag plus the parallel
// chunk and vector slices.
type indexFile struct {
	Model     string
	Dimension int
	Metric    string
	Chunks    []domain.Chunk
	Vectors   [][]float32
}

// Persist writes the index under dir, creating it as needed. The write is
// staged through a temp file and renamed so a crash never leaves a
// truncated index behind.
func (ix *Index) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, indexFileName)
	f, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}
	enc := gob.NewEncoder(f)
	err = enc.Encode(indexFile{
		Model:     ix.spec.Model,
		Dimension: ix.spec.Dimension,
		Metric:    ix.spec.Metric,
		Chunks:    ix.chunks,
		Vectors:   ix.vectors,
	})
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(path+".tmp", path)
}

// Load reads an index from dir and validates its tag against want. A
// mismatched model, metric, or dimension fails with ErrIncompatibleIndex
// rather than silently returning wrong search results. A zero value in
// want skips that field (local embedders only know their dimension after
// preparing on the loaded corpus).
func Load(dir string, want Spec) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(file.Chunks) == 0 || len(file.Chunks) != len(file.Vectors) {
		return nil, fmt.Errorf("%w: corrupt chunk/vector data", ErrIncompatibleIndex)
	}
	if want.Model != "" && want.Model != file.Model {
		return nil, fmt.Errorf("%w: built with model %q, want %q", ErrIncompatibleIndex, file.Model, want.Model)
	}
	if want.Metric != "" && want.Metric != file.Metric {
		return nil, fmt.Errorf("%w: built with metric %q, want %q", ErrIncompatibleIndex, file.Metric, want.Metric)
	}
	if want.Dimension != 0 && want.Dimension != file.Dimension {
		return nil, fmt.Errorf("%w: built with dimension %d, want %d", ErrIncompatibleIndex, file.Dimension, want.Dimension)
	}
	return &Index{
		spec:    Spec{Model: file.Model, Dimension: file.Dimension, Metric: file.Metric},
		chunks:  file.Chunks,
		vectors: file.Vectors,
	}, nil
}
