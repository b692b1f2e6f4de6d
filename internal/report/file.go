package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the report encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts markdown (or md), json and docx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "docx":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unknown report format %q (want markdown, json or docx)", s)
}

// Encode writes the report to w in format f.
func (r *Report) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatDOCX:
		return r.WriteDOCX(w)
	default:
		_, err := io.WriteString(w, r.Markdown())
		return err
	}
}

// WriteFile encodes the report to path, creating parent directories.
func (r *Report) WriteFile(path string, f Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := r.Encode(w, f); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return file.Close()
}
