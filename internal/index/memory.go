// Package index provides the searchable vector index over knowledge chunks.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dscprotocol/assistant/internal/domain"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type entry struct {
	vector []float32
	chunk  domain.Chunk
}

// MemoryIndex is an in-memory cosine-similarity index. Rebuild embeds a fresh
// entry set and swaps it in atomically, so concurrent searches always see
// either the fully-old or fully-new contents.
type MemoryIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []entry
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

// Rebuild embeds every chunk and replaces the index contents in one swap.
// Any embedding failure leaves the previous contents serving.
func (idx *MemoryIndex) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return domain.ErrNoDocumentsFound
	}

	fresh := make([]entry, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := idx.embedder.GenerateEmbedding(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed chunk from %s: %w", chunk.Source, err)
		}
		fresh = append(fresh, entry{vector: vec, chunk: chunk})
	}

	idx.mu.Lock()
	idx.entries = fresh
	idx.mu.Unlock()
	return nil
}

// Search returns the k nearest chunks, best match first. Ties keep insertion
// order so repeated searches are reproducible. Returns fewer than k entries
// when the index holds fewer chunks.
func (idx *MemoryIndex) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	queryVec, err := idx.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	idx.mu.RLock()
	entries := idx.entries
	idx.mu.RUnlock()

	results := make([]domain.ScoredChunk, 0, len(entries))
	for _, e := range entries {
		results = append(results, domain.ScoredChunk{
			Chunk: e.chunk,
			Score: cosineSimilarity(queryVec, e.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Size reports the number of indexed chunks.
func (idx *MemoryIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
