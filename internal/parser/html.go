package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// RenderHTML converts markdown to an HTML fragment.
func RenderHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// PlainText renders a markdown snippet and returns its visible text with
// emphasis, code spans and link targets stripped.
func PlainText(markdown string) string {
	rendered, err := RenderHTML([]byte(markdown))
	if err != nil {
		return strings.TrimSpace(markdown)
	}
	return HTMLText(string(rendered))
}

// HTMLText returns the text content of an HTML fragment, skipping script and
// style elements.
func HTMLText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(textContent(doc))
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

// FindByClass returns the first element carrying class cls, or nil.
func FindByClass(n *html.Node, cls string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && hasClass(a.Val, cls) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindByClass(c, cls); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(attr, cls string) bool {
	for _, f := range strings.Fields(attr) {
		if f == cls {
			return true
		}
	}
	return false
}
