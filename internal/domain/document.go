package domain

// Document is a single knowledge-base file provided by a document source.
// Documents are rebuilt wholesale on every load; they are never mutated.
type Document struct {
	Content string
	Source  string
}

// Chunk is a bounded segment of a document used as a retrieval unit.
// Every chunk carries the source identifier of its originating document.
type Chunk struct {
	Text   string
	Source string
}

// ScoredChunk pairs a chunk with its similarity score for a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}
