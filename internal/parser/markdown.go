package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is a fenced code block.
type CodeBlock struct {
	Language string // First word of the info string, empty when untagged
	Code     string // Block content without the fences
	Line     int    // 1-based line of the opening fence
}

// Image is an inline or reference image.
type Image struct {
	Alt         string
	Destination string
}

// Heading is an ATX or setext heading.
type Heading struct {
	Level int
	Text  string
}

// Outline is the subset of a markdown document the checks care about, in
// document order.
type Outline struct {
	Headings   []Heading
	CodeBlocks []CodeBlock
	Images     []Image
}

// Scan parses markdown source with goldmark and collects headings, fenced
// code blocks and images.
func Scan(src []byte) *Outline {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	out := &Outline{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			out.Headings = append(out.Headings, Heading{
				Level: node.Level,
				Text:  strings.TrimSpace(string(node.Text(src))),
			})
		case *ast.FencedCodeBlock:
			out.CodeBlocks = append(out.CodeBlocks, CodeBlock{
				Language: string(node.Language(src)),
				Code:     blockText(node, src),
				Line:     fenceLine(node, src),
			})
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			out.Images = append(out.Images, Image{
				Alt:         string(node.Text(src)),
				Destination: string(node.Destination),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// Blocks returns the fenced code blocks tagged with lang, in document order.
func (o *Outline) Blocks(lang string) []CodeBlock {
	var blocks []CodeBlock
	for _, b := range o.CodeBlocks {
		if b.Language == lang {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Title returns the text of the first level-1 heading.
func (o *Outline) Title() (string, bool) {
	for _, h := range o.Headings {
		if h.Level == 1 && h.Text != "" {
			return h.Text, true
		}
	}
	return "", false
}

func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}

func fenceLine(n *ast.FencedCodeBlock, src []byte) int {
	var offset int
	switch {
	case n.Info != nil:
		offset = n.Info.Segment.Start
	case n.Lines().Len() > 0:
		// Untagged fence: the first content line sits one line below it.
		offset = n.Lines().At(0).Start
		return lineAt(src, offset) - 1
	default:
		return 0
	}
	return lineAt(src, offset)
}

func lineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}
