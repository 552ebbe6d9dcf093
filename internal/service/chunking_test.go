package service

import (
	"strings"
	"testing"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocument_ShortDocumentSingleChunk(t *testing.T) {
	doc := domain.Document{Content: "Short protocol note.", Source: "note.md"}

	chunks := SplitDocument(doc, DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Short protocol note.", chunks[0].Text)
	assert.Equal(t, "note.md", chunks[0].Source)
}

func TestSplitDocument_EmptyDocument(t *testing.T) {
	doc := domain.Document{Content: "   \n\n  ", Source: "empty.md"}

	chunks := SplitDocument(doc, DefaultChunkConfig())

	assert.Empty(t, chunks)
}

func TestSplitDocument_RespectsMaxChars(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("collateral ratio ")
	}
	doc := domain.Document{Content: b.String(), Source: "long.md"}

	cfg := DefaultChunkConfig()
	chunks := SplitDocument(doc, cfg)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk.Text)), cfg.MaxChars)
		assert.Equal(t, "long.md", chunk.Source)
	}
}

func TestSplitDocument_OverlapCarriesSharedText(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("word ")
	}
	doc := domain.Document{Content: b.String(), Source: "overlap.md"}

	cfg := ChunkConfig{MaxChars: 500, MinChars: 100, Overlap: 100, Separators: []string{" "}}
	chunks := SplitDocument(doc, cfg)
	require.Greater(t, len(chunks), 1)

	// The tail of each chunk must reappear inside the next one.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		tail := strings.TrimSpace(string(prev[len(prev)-50:]))
		assert.True(t, strings.Contains(chunks[i].Text, tail),
			"chunk %d should repeat the overlap of chunk %d", i, i-1)
	}
}

func TestSplitDocument_PrefersSectionBoundaries(t *testing.T) {
	section := strings.Repeat("Deposits raise the health factor. ", 20)
	content := "# Guide\n\n" + section + "\n## Borrowing\n\n" + section

	doc := domain.Document{Content: content, Source: "guide.md"}
	chunks := SplitDocument(doc, DefaultChunkConfig())
	require.Greater(t, len(chunks), 1)

	// The first chunk stops before the header even though more characters
	// would have fit, and the header survives in a later chunk.
	assert.NotContains(t, chunks[0].Text, "## Borrowing")
	assert.Less(t, len([]rune(chunks[0].Text)), DefaultChunkConfig().MaxChars)

	found := false
	for _, chunk := range chunks[1:] {
		if strings.Contains(chunk.Text, "## Borrowing") {
			found = true
		}
	}
	assert.True(t, found, "the section header should survive chunking")
}

func TestChunkText_HardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("a", 2500)

	cfg := ChunkConfig{MaxChars: 1000, MinChars: 200, Overlap: 0, Separators: []string{" "}}
	chunks := chunkText(text, cfg)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
}

func TestChunkText_ZeroConfigFallsBackToDefaults(t *testing.T) {
	chunks := chunkText("plain text", ChunkConfig{})

	require.Len(t, chunks, 1)
	assert.Equal(t, "plain text", chunks[0])
}
