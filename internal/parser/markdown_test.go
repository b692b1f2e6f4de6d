package parser

import (
	"strings"
	"testing"
)

func TestScan_CodeBlocksInOrder(t *testing.T) {
	input := "# 第一章\n\n```python\nimport numpy as np\nprint(np.pi)\n```\n\n文字。\n\n```mermaid\nflowchart LR\n  A-->B\n```\n\n```python\nx = 1\n```\n"

	out := Scan([]byte(input))
	if len(out.CodeBlocks) != 3 {
		t.Fatalf("expected 3 code blocks, got %d", len(out.CodeBlocks))
	}

	py := out.Blocks("python")
	if len(py) != 2 {
		t.Fatalf("expected 2 python blocks, got %d", len(py))
	}
	if py[0].Code != "import numpy as np\nprint(np.pi)\n" {
		t.Errorf("unexpected first block content %q", py[0].Code)
	}
	if py[0].Line != 3 {
		t.Errorf("expected first fence on line 3, got %d", py[0].Line)
	}
	if py[1].Code != "x = 1\n" {
		t.Errorf("unexpected second block content %q", py[1].Code)
	}

	mermaid := out.Blocks("mermaid")
	if len(mermaid) != 1 || !strings.Contains(mermaid[0].Code, "flowchart") {
		t.Errorf("expected one mermaid block with flowchart, got %+v", mermaid)
	}
}

func TestScan_InfoStringUsesFirstWord(t *testing.T) {
	out := Scan([]byte("```python title=demo.py\npass\n```\n"))
	if len(out.Blocks("python")) != 1 {
		t.Fatalf("expected info string language to resolve to python, got %+v", out.CodeBlocks)
	}
}

func TestScan_Images(t *testing.T) {
	input := "![架构图](images/arch.png)\n\n段落里有图 ![远程](https://example.com/a.png) 结尾。\n\n```\n![not an image](inside/code.png)\n```\n"

	out := Scan([]byte(input))
	if len(out.Images) != 2 {
		t.Fatalf("expected 2 images, got %d: %+v", len(out.Images), out.Images)
	}
	if out.Images[0].Destination != "images/arch.png" {
		t.Errorf("expected %q, got %q", "images/arch.png", out.Images[0].Destination)
	}
	if out.Images[0].Alt != "架构图" {
		t.Errorf("expected alt %q, got %q", "架构图", out.Images[0].Alt)
	}
	if out.Images[1].Destination != "https://example.com/a.png" {
		t.Errorf("expected remote destination, got %q", out.Images[1].Destination)
	}
}

func TestScan_HeadingsAndTitle(t *testing.T) {
	input := "## 本章导读\n\n# 真正的标题\n\n## 核心概念\n"
	out := Scan([]byte(input))

	if len(out.Headings) != 3 {
		t.Fatalf("expected 3 headings, got %d", len(out.Headings))
	}
	if out.Headings[0].Level != 2 || out.Headings[0].Text != "本章导读" {
		t.Errorf("unexpected first heading %+v", out.Headings[0])
	}
	title, ok := out.Title()
	if !ok || title != "真正的标题" {
		t.Errorf("expected title %q, got %q (ok=%v)", "真正的标题", title, ok)
	}
}

func TestScan_EmptyInput(t *testing.T) {
	out := Scan(nil)
	if len(out.CodeBlocks) != 0 || len(out.Images) != 0 || len(out.Headings) != 0 {
		t.Errorf("expected empty outline, got %+v", out)
	}
	if _, ok := out.Title(); ok {
		t.Error("expected no title for empty input")
	}
}

func TestIsChapterFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"chapter01.md", true},
		{"notes.MARKDOWN", true},
		{"figure.png", false},
		{"README", false},
	}
	for _, tt := range tests {
		if got := IsChapterFile(tt.name); got != tt.want {
			t.Errorf("IsChapterFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
