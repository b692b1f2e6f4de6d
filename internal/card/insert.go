package card

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/bookkit/internal/parser"
	"golang.org/x/net/html"
)

var (
	// ErrCardExists is returned when a chapter already carries a card.
	ErrCardExists = errors.New("chapter already contains a share card")
	// ErrNoCard is returned by UpdateURL when no copy button is found.
	ErrNoCard = errors.New("no share link found to update")
)

const cardClass = "article-summary-card"

var copyLink = regexp.MustCompile(`copyArticleLink\('([^']*)'\)`)

// HasCard reports whether content already contains a share card.
func HasCard(content string) bool {
	if strings.Contains(content, Marker) {
		return true
	}
	if !strings.Contains(content, cardClass) {
		return false
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return true
	}
	return parser.FindByClass(doc, cardClass) != nil
}

// Result describes a generated card.
type Result struct {
	Summary
	HTML string
}

// Build extracts the summary from content and renders the card.
func Build(content, shareURL string, now time.Time) (*Result, error) {
	s := Extract(content)
	out, err := Render(s, shareURL, now)
	if err != nil {
		return nil, err
	}
	return &Result{Summary: s, HTML: out}, nil
}

// Insert appends a card to the chapter at path. With preview set the file
// is left untouched.
func Insert(path, shareURL string, now time.Time, preview bool) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapter: %w", err)
	}
	content := string(data)
	if HasCard(content) {
		return nil, ErrCardExists
	}

	res, err := Build(content, shareURL, now)
	if err != nil {
		return nil, err
	}
	if preview {
		return res, nil
	}

	updated := strings.TrimRight(content, " \t\r\n") + "\n\n" + res.HTML + "\n"
	if err := writeInPlace(path, updated); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateURL rewrites the copy-link target of every card in the chapter.
func UpdateURL(path, shareURL string) error {
	if err := ValidateShareURL(shareURL); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chapter: %w", err)
	}
	content := string(data)
	if !copyLink.MatchString(content) {
		return ErrNoCard
	}

	replacement := "copyArticleLink('" + escapeReplacement(template.HTMLEscapeString(shareURL)) + "')"
	return writeInPlace(path, copyLink.ReplaceAllString(content, replacement))
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

func writeInPlace(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat chapter: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write chapter: %w", err)
	}
	return nil
}
