package service

import (
	"context"
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
)

// retrievalTopK is the number of chunks fed into every prompt.
const retrievalTopK = 4

// ChunkSearcher defines the index surface the retriever depends on.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// Retriever turns a standalone question into prompt context and a source set.
type Retriever struct {
	index ChunkSearcher
}

// NewRetriever creates a new Retriever instance
func NewRetriever(index ChunkSearcher) *Retriever {
	return &Retriever{index: index}
}

// Retrieve searches the index and returns the concatenated chunk texts in
// result order plus the de-duplicated source identifiers. Source ordering is
// first-seen and carries no meaning.
func (r *Retriever) Retrieve(ctx context.Context, question string) (string, []string, error) {
	results, err := r.index.Search(ctx, question, retrievalTopK)
	if err != nil {
		return "", nil, err
	}

	texts := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		texts = append(texts, res.Chunk.Text)
		if _, ok := seen[res.Chunk.Source]; ok {
			continue
		}
		seen[res.Chunk.Source] = struct{}{}
		sources = append(sources, res.Chunk.Source)
	}

	return strings.Join(texts, "\n\n"), sources, nil
}
