package service

import (
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
)

// ChunkConfig controls how documents are split for indexing.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
	// Separators are boundary preferences, highest priority first. A chunk
	// cut is searched at the highest-priority separator that fits; lower
	// priorities are fallbacks. An exhausted list means a hard character cut.
	Separators []string
}

// DefaultChunkConfig provides the chunking defaults for protocol docs:
// section headers first, then paragraphs, lines, and spaces.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1000,
		MinChars: 200,
		Overlap:  200,
		Separators: []string{
			"\n## ",
			"\n### ",
			"\n\n",
			"\n",
			" ",
		},
	}
}

// SplitDocument splits a document into overlapping chunks. Every chunk
// inherits the document's source identifier.
func SplitDocument(doc domain.Document, cfg ChunkConfig) []domain.Chunk {
	texts := chunkText(doc.Content, cfg)
	chunks := make([]domain.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, domain.Chunk{Text: text, Source: doc.Source})
	}
	return chunks
}

func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			if cut := findCut(runes, start, end, cfg); cut > start {
				end = cut
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}

// findCut scans backwards from end for the highest-priority separator, so a
// chunk prefers to stop right before a section header, then a paragraph
// break, and so on. Returns start when no separator fits, which forces a
// hard cut at end.
func findCut(runes []rune, start, end int, cfg ChunkConfig) int {
	minCut := start + cfg.MinChars
	if minCut > end {
		minCut = start
	}

	window := string(runes[minCut:end])
	for _, sep := range cfg.Separators {
		if sep == "" {
			break
		}
		if i := strings.LastIndex(window, sep); i >= 0 {
			// Cut before the separator so headers lead the next chunk.
			return minCut + len([]rune(window[:i]))
		}
	}

	return start
}
