package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ragchat/internal/domain"
)

// ErrNoDocuments is returned when the input folder contains no readable documents.
var ErrNoDocuments = errors.New("no documents found")

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Loader reads plain-text documents from a folder and splits them into
// overlapping fixed-size chunks.
type Loader struct {
	chunkSize int
	overlap   int
}

func NewLoader(chunkSize, overlap int) *Loader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}
	return &Loader{chunkSize: chunkSize, overlap: overlap}
}

// Load reads every .txt and .md file directly under folder and returns
// their chunks. SourceID is the file base name; Page is the 1-based chunk
// ordinal within its file.
func (l *Loader) Load(folder string) ([]domain.Chunk, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", folder, err)
	}
	var chunks []domain.Chunk
	for _, e := range entries {
		if e.IsDir() || !matchesExt(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(folder, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		for i, text := range SplitText(string(data), l.chunkSize, l.overlap) {
			chunks = append(chunks, domain.Chunk{
				Text:     text,
				SourceID: e.Name(),
				Page:     i + 1,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, folder)
	}
	return chunks, nil
}

// SplitText cuts text into chunks of at most size runes where consecutive
// chunks share overlap runes. The final chunk may be shorter.
func SplitText(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	for start := 0; start < len(runes); start += size - overlap {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func matchesExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}
