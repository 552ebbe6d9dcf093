package index

import (
	"context"
	"errors"
	"testing"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func newPopulatedIndex(t *testing.T) *MemoryIndex {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"liquidation": {1, 0, 0},
		"deposits":    {0, 1, 0},
		"borrowing":   {0.7, 0.7, 0},
		"query":       {1, 0.1, 0},
	}}

	idx := NewMemoryIndex(embedder)
	err := idx.Rebuild(context.Background(), []domain.Chunk{
		{Text: "liquidation", Source: "liquidation.md"},
		{Text: "deposits", Source: "deposits.md"},
		{Text: "borrowing", Source: "borrowing.md"},
	})
	require.NoError(t, err)
	return idx
}

func TestMemoryIndex_SearchOrdersByScore(t *testing.T) {
	idx := newPopulatedIndex(t)

	results, err := idx.Search(context.Background(), "query", 3)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "liquidation", results[0].Chunk.Text)
	assert.Equal(t, "borrowing", results[1].Chunk.Text)
	assert.Equal(t, "deposits", results[2].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryIndex_SearchTruncatesToK(t *testing.T) {
	idx := newPopulatedIndex(t)

	results, err := idx.Search(context.Background(), "query", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryIndex_SearchFewerThanK(t *testing.T) {
	idx := newPopulatedIndex(t)

	results, err := idx.Search(context.Background(), "query", 10)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 0, 0},
		"second": {1, 0, 0},
		"third":  {1, 0, 0},
		"q":      {1, 0, 0},
	}}

	idx := NewMemoryIndex(embedder)
	require.NoError(t, idx.Rebuild(context.Background(), []domain.Chunk{
		{Text: "first", Source: "a.md"},
		{Text: "second", Source: "b.md"},
		{Text: "third", Source: "c.md"},
	}))

	for i := 0; i < 5; i++ {
		results, err := idx.Search(context.Background(), "q", 3)
		require.NoError(t, err)
		assert.Equal(t, "first", results[0].Chunk.Text)
		assert.Equal(t, "second", results[1].Chunk.Text)
		assert.Equal(t, "third", results[2].Chunk.Text)
	}
}

func TestMemoryIndex_RebuildEmptyChunks(t *testing.T) {
	idx := NewMemoryIndex(&fakeEmbedder{})

	err := idx.Rebuild(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrNoDocumentsFound)
}

func TestMemoryIndex_RebuildReplacesContents(t *testing.T) {
	idx := newPopulatedIndex(t)
	require.Equal(t, 3, idx.Size())

	err := idx.Rebuild(context.Background(), []domain.Chunk{
		{Text: "repayments", Source: "repayments.md"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Size())
	results, err := idx.Search(context.Background(), "query", 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "repayments.md", results[0].Chunk.Source)
}

func TestMemoryIndex_EmbeddingFailureKeepsPriorContents(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	idx := NewMemoryIndex(embedder)
	require.NoError(t, idx.Rebuild(context.Background(), []domain.Chunk{
		{Text: "original", Source: "a.md"},
	}))

	embedder.err = errors.New("backend down")
	err := idx.Rebuild(context.Background(), []domain.Chunk{
		{Text: "replacement", Source: "b.md"},
	})
	require.Error(t, err)

	embedder.err = nil
	assert.Equal(t, 1, idx.Size())
	results, err := idx.Search(context.Background(), "anything", 1)
	require.NoError(t, err)
	assert.Equal(t, "a.md", results[0].Chunk.Source)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float32(0), cosineSimilarity(nil, nil))
}
