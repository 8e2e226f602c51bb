package ingest

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pathFilter selects repository files by doublestar pattern.
type pathFilter struct {
	patterns []string
}

func newPathFilter(patterns []string) *pathFilter {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || !doublestar.ValidatePattern(p) {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return &pathFilter{patterns: cleaned}
}

// Match tests the slash-separated relative path, then its base name so
// "*.md" also matches nested files.
func (f *pathFilter) Match(relPath string) bool {
	relPath = strings.TrimPrefix(path.Clean(strings.ReplaceAll(relPath, "\\", "/")), "./")
	base := path.Base(relPath)
	for _, pattern := range f.patterns {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

var documentationExts = map[string]bool{
	".md":  true,
	".mdx": true,
	".rst": true,
	".txt": true,
}

// docType classifies a file path as documentation or source.
func docType(relPath string) string {
	if documentationExts[strings.ToLower(path.Ext(relPath))] {
		return TypeDocumentation
	}
	return TypeSource
}
