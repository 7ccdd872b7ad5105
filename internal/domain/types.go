package domain

import (
	"context"
	"time"
)

// Chunk is a bounded span of source text produced by splitting a document.
// Immutable once created.
type Chunk struct {
	Text     string
	SourceID string
	Page     int
}

// SearchResult pairs an indexed chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single message in a conversation. Immutable once appended.
type ChatTurn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// ChatSession is one continuous conversation, an ordered sequence of turns.
type ChatSession struct {
	ID        string
	Name      string
	Turns     []ChatTurn
	CreatedAt time.Time
}

// Empty reports whether the session holds no turns yet.
func (s ChatSession) Empty() bool { return len(s.Turns) == 0 }

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
// The same embedder (name, dimension, normalization) must be used at
// index-build time and at query time.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float32, error)
}

// Searcher performs nearest-neighbour search over indexed chunks.
// Results are ordered by descending similarity.
type Searcher interface {
	Search(vector []float32, topK int) ([]SearchResult, error)
}

// Generator produces an answer grounded in the retrieved context.
// Provider failures are folded into the returned text, never raised,
// since the chat surface has no other channel to show them.
type Generator interface {
	Answer(ctx context.Context, grounding, question string, history []ChatTurn) string
}
