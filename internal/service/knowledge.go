package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/dscprotocol/assistant/internal/telemetry"
)

// DocumentSource provides the set of named documents that make up the
// knowledge base.
type DocumentSource interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// ChunkIndex is the rebuild surface of a vector index. A rebuild must present
// either the fully-old or fully-new index to concurrent searches.
type ChunkIndex interface {
	Rebuild(ctx context.Context, chunks []domain.Chunk) error
}

// KnowledgeService owns the load/reload lifecycle of the knowledge base:
// fetch documents, chunk them, and rebuild the vector index in full.
type KnowledgeService struct {
	source DocumentSource
	index  ChunkIndex
	cfg    ChunkConfig

	mu         sync.Mutex
	chunkCount int
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(source DocumentSource, index ChunkIndex) *KnowledgeService {
	return &KnowledgeService{
		source: source,
		index:  index,
		cfg:    DefaultChunkConfig(),
	}
}

// Reload re-chunks and re-indexes the entire knowledge base. On any failure
// the previous index keeps serving; there is no partial swap. Returns the
// number of chunks indexed.
func (s *KnowledgeService) Reload(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "knowledge.reload", telemetry.SpanAttributes{
		Operation: "reload",
	})
	defer span.End()

	docs, err := s.source.Load(ctx)
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	if len(docs) == 0 {
		return 0, domain.ErrNoDocumentsFound
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, SplitDocument(doc, s.cfg)...)
	}
	if len(chunks) == 0 {
		return 0, domain.ErrNoDocumentsFound
	}

	if err := s.index.Rebuild(ctx, chunks); err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to rebuild index: %w", err)
	}

	s.chunkCount = len(chunks)
	log.Printf("knowledge base loaded: %d chunks from %d documents", len(chunks), len(docs))
	return len(chunks), nil
}

// ChunkCount reports the chunk count of the last successful reload.
func (s *KnowledgeService) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkCount
}
