package chapter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern selects the markdown files directly inside the chapters directory.
const DefaultPattern = "*.md"

// Document is one chapter read from disk.
type Document struct {
	ID      string // Path relative to the chapters directory, without extension
	Path    string // Path as opened
	Content string // Full UTF-8 text
}

// Name returns the chapter's file name.
func (d Document) Name() string {
	return filepath.Base(d.Path)
}

// Discover returns the chapter files under dir matching pattern, in ascending
// order of their path relative to dir. A missing or unreadable dir is an error;
// an empty match set is not.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid chapter pattern %q", pattern)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat chapters dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("chapters path is not a directory: %s", dir)
	}
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("read chapters dir: %w", err)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob chapters: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		st, err := fs.Stat(fsys, m)
		if err != nil || st.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(dir, filepath.FromSlash(f))
	}
	return paths, nil
}

// IDFor derives the chapter identifier for path relative to dir.
func IDFor(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// Load reads a chapter file.
func Load(dir, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read chapter %s: %w", filepath.Base(path), err)
	}
	return Document{
		ID:      IDFor(dir, path),
		Path:    path,
		Content: string(data),
	}, nil
}
