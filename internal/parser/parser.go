// Package parser extracts the parts of markdown chapters that the book tools
// inspect: headings, fenced code blocks, images and plain text.
package parser

import (
	"path/filepath"
	"strings"
)

// ChapterExtensions lists file extensions treated as chapter sources.
var ChapterExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// IsChapterFile checks if a file name has a chapter extension.
func IsChapterFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ChapterExtensions[ext]
}
