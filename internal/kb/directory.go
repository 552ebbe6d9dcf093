// Package kb provides knowledge-base document sources.
package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dscprotocol/assistant/internal/domain"
)

// documentExtensions are the file types treated as knowledge documents.
var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// DirectorySource loads one logical document per file from a local
// directory. The file name is the document's source identifier.
type DirectorySource struct {
	path string
}

// NewDirectorySource creates a source rooted at path.
func NewDirectorySource(path string) *DirectorySource {
	return &DirectorySource{path: path}
}

// Path returns the directory the source reads from.
func (s *DirectorySource) Path() string {
	return s.path
}

// Load reads every document file in the directory, sorted by name for
// reproducible chunk ordering.
func (s *DirectorySource) Load(ctx context.Context) ([]domain.Document, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base directory %s: %w", s.path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !documentExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(s.path, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", name, err)
		}
		docs = append(docs, domain.Document{
			Content: string(content),
			Source:  name,
		})
	}

	return docs, nil
}
