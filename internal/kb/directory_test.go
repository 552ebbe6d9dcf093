package kb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirectorySource_LoadsMarkdownAndText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "liquidation.md", "# Liquidation")
	writeFile(t, dir, "notes.txt", "plain notes")
	writeFile(t, dir, "guide.markdown", "# Guide")
	writeFile(t, dir, "config.json", "{}")
	writeFile(t, dir, "image.png", "binary")

	source := NewDirectorySource(dir)
	docs, err := source.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 3)

	// ReadDir order is lexical, so sources come back sorted.
	assert.Equal(t, "guide.markdown", docs[0].Source)
	assert.Equal(t, "liquidation.md", docs[1].Source)
	assert.Equal(t, "notes.txt", docs[2].Source)
	assert.Equal(t, "# Guide", docs[0].Content)
}

func TestDirectorySource_EmptyDirectory(t *testing.T) {
	source := NewDirectorySource(t.TempDir())

	docs, err := source.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDirectorySource_MissingDirectory(t *testing.T) {
	source := NewDirectorySource(filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := source.Load(context.Background())

	assert.Error(t, err)
}

func TestDirectorySource_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.md", "top level")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "inner.md", "nested")

	source := NewDirectorySource(dir)
	docs, err := source.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "top.md", docs[0].Source)
}
