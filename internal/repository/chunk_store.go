package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/dscprotocol/assistant/internal/domain"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore is a pgvector-backed vector index. Rebuilds replace the whole
// table inside one transaction, so concurrent searches see either the old or
// the new contents, never a mix.
type ChunkStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// NewChunkStore creates a new ChunkStore instance
func NewChunkStore(pool *pgxpool.Pool, embedder Embedder) *ChunkStore {
	return &ChunkStore{pool: pool, embedder: embedder}
}

// Rebuild embeds every chunk and replaces the stored set transactionally.
func (r *ChunkStore) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return domain.ErrNoDocumentsFound
	}

	type embedded struct {
		chunk  domain.Chunk
		vector []float32
	}

	// Embed outside the transaction; embedding calls are slow I/O and any
	// failure must leave the previous contents untouched.
	entries := make([]embedded, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := r.embedder.GenerateEmbedding(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed chunk from %s: %w", chunk.Source, err)
		}
		entries = append(entries, embedded{chunk: chunk, vector: vec})
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM kb_chunks`); err != nil {
		return err
	}

	for i, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO kb_chunks (chunk_index, source, content, embedding)
			 VALUES ($1, $2, $3, $4)`,
			i,
			e.chunk.Source,
			e.chunk.Text,
			pgvector.NewVector(e.vector),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search returns the k nearest chunks by cosine distance, best match first.
// Ties fall back to insertion order to keep results reproducible.
func (r *ChunkStore) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 4
	}

	queryVec, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT content, source, 1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM kb_chunks
		 ORDER BY embedding <=> $1, chunk_index
		 LIMIT $2`,
		pgvector.NewVector(queryVec), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.Chunk.Text, &sc.Chunk.Source, &sc.Score); err != nil {
			return nil, err
		}
		results = append(results, sc)
	}

	return results, rows.Err()
}

// Count reports the number of stored chunks.
func (r *ChunkStore) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM kb_chunks`).Scan(&count)
	return count, err
}
