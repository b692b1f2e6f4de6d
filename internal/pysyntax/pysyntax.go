// Package pysyntax reports whether a Python snippet parses, and where it
// stops parsing when it does not.
package pysyntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SyntaxError locates the first parse failure in a snippet.
type SyntaxError struct {
	Msg    string
	Line   int // 1-based
	Column int // 1-based
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
}

// Checker validates Python source. Check returns nil for valid code.
type Checker interface {
	Check(code string) *SyntaxError
}

// TreeSitter checks snippets with the tree-sitter Python grammar. It is not
// safe for concurrent use.
type TreeSitter struct {
	parser *sitter.Parser
}

// NewTreeSitter creates a tree-sitter backed checker.
func NewTreeSitter() *TreeSitter {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &TreeSitter{parser: p}
}

// Check parses code and reports the first problem in document order: an
// error or missing token, a construct only Python 2 accepts, or an
// unexpected indent.
func (c *TreeSitter) Check(code string) *SyntaxError {
	src := []byte(code)
	tree, err := c.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return &SyntaxError{Msg: fmt.Sprintf("parse failed: %v", err), Line: 1, Column: 1}
	}
	defer tree.Close()

	return firstProblem(tree.RootNode(), src)
}

// Close releases the underlying parser.
func (c *TreeSitter) Close() {
	c.parser.Close()
}

// legacyMessages maps statements the grammar keeps for Python 2 to the
// message CPython 3 gives for them.
var legacyMessages = map[string]string{
	"print_statement": "Missing parentheses in call to 'print'. Did you mean print(...)?",
	"exec_statement":  "Missing parentheses in call to 'exec'. Did you mean exec(...)?",
}

// firstProblem walks the tree in document order.
func firstProblem(n *sitter.Node, src []byte) *SyntaxError {
	if n.IsMissing() || n.Type() == "ERROR" {
		return describe(n, src)
	}
	if msg, ok := legacyMessages[n.Type()]; ok {
		return at(n, msg)
	}
	if n.Type() == "except_clause" {
		if comma := exceptComma(n); comma != nil {
			return at(comma, "multiple exception types must be parenthesized")
		}
	}

	body := n.Type() == "module" || n.Type() == "block"
	want := -1
	if n.Type() == "module" {
		want = 0
	}
	prevEnd := -1
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if body && child.IsNamed() && child.Type() != "comment" && child.Type() != "ERROR" {
			start := child.StartPoint()
			// Only statements that begin their own line carry indentation.
			if int(start.Row) != prevEnd {
				col := int(start.Column)
				switch {
				case want < 0:
					want = col
				case col > want:
					return at(child, "unexpected indent")
				}
			}
			prevEnd = int(child.EndPoint().Row)
		}
		if found := firstProblem(child, src); found != nil {
			return found
		}
	}
	return nil
}

// exceptComma returns the comma of an "except E, name:" clause.
func exceptComma(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case ",":
			return child
		case "expression_list":
			return child
		case "block", ":":
			return nil
		}
	}
	return nil
}

func at(n *sitter.Node, msg string) *SyntaxError {
	pos := n.StartPoint()
	return &SyntaxError{Msg: msg, Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

func describe(n *sitter.Node, src []byte) *SyntaxError {
	pos := n.StartPoint()
	e := &SyntaxError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}

	if n.IsMissing() {
		e.Msg = fmt.Sprintf("expected '%s'", n.Type())
		return e
	}

	// An ERROR node that opens with a bracket is almost always an unclosed one.
	if n.ChildCount() > 0 {
		first := n.Child(0)
		if first != nil {
			if _, ok := closers[first.Type()]; ok {
				p := first.StartPoint()
				e.Line, e.Column = int(p.Row)+1, int(p.Column)+1
				e.Msg = fmt.Sprintf("'%s' was never closed", first.Type())
				return e
			}
		}
	}

	near := strings.TrimSpace(n.Content(src))
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	if near == "" {
		e.Msg = "invalid syntax"
		return e
	}
	if len([]rune(near)) > 30 {
		near = string([]rune(near)[:30]) + "..."
	}
	e.Msg = fmt.Sprintf("invalid syntax near %q", near)
	return e
}
