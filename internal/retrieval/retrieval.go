package retrieval

import (
	"fmt"
	"strings"

	"ragchat/internal/domain"
)

// DefaultTopK matches the number of grounding chunks fed to the model.
const DefaultTopK = 3

// Context is an ordered set of retrieved chunks, best match first.
type Context struct {
	Results []domain.SearchResult
}

// Prompt renders the grounding context: chunk texts in rank order, each
// delimited by an ordinal label so the model can tell them apart.
func (c Context) Prompt() string {
	var b strings.Builder
	for i, r := range c.Results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document %d:\n%s", i+1, r.Chunk.Text)
	}
	return b.String()
}

// Pipeline embeds a query and searches the index for grounding chunks.
// The embedder must be the one the index was built with; the index tag
// check at load time is what enforces that.
type Pipeline struct {
	embedder domain.Embedder
	index    domain.Searcher
	topK     int
}

func NewPipeline(embedder domain.Embedder, index domain.Searcher, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{embedder: embedder, index: index, topK: topK}
}

// Retrieve embeds query and returns the topK most similar chunks.
func (p *Pipeline) Retrieve(query string) (Context, error) {
	vec, err := p.embedder.Embed(query)
	if err != nil {
		return Context{}, fmt.Errorf("embed query: %w", err)
	}
	results, err := p.index.Search(vec, p.topK)
	if err != nil {
		return Context{}, fmt.Errorf("search index: %w", err)
	}
	return Context{Results: results}, nil
}
