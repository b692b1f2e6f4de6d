package proofread

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookkit/internal/assets"
	"github.com/dgallion1/bookkit/internal/chapter"
	"github.com/dgallion1/bookkit/internal/parser"
	"github.com/dgallion1/bookkit/internal/pysyntax"
)

// Analyzer runs the checks for a single chapter. It holds no per-chapter
// state, but its syntax checker may not be safe for concurrent use.
type Analyzer struct {
	Rules   *Rules
	Syntax  pysyntax.Checker // nil skips syntax validation
	BaseDir string           // image paths resolve against this directory
}

// Analyze runs the enabled categories over doc in check order.
func (a *Analyzer) Analyze(doc chapter.Document, cats CategorySet) []Finding {
	var out []Finding
	var outline *parser.Outline
	scan := func() *parser.Outline {
		if outline == nil {
			outline = parser.Scan([]byte(doc.Content))
		}
		return outline
	}

	for _, c := range Categories {
		if !cats[c] {
			continue
		}
		switch c {
		case CategoryStructure:
			out = append(out, a.CheckStructure(doc.ID, doc.Content)...)
		case CategoryCode:
			out = append(out, a.CheckCode(doc.ID, scan())...)
		case CategoryImages:
			out = append(out, a.CheckImages(doc.ID, scan())...)
		case CategoryStyle:
			out = append(out, a.CheckStyle(doc.ID, doc.Content)...)
		}
	}
	return out
}

// CheckStructure reports missing required sections and a short quiz.
func (a *Analyzer) CheckStructure(chapterID, content string) []Finding {
	var out []Finding
	for i, s := range a.Rules.Structure.RequiredSections {
		if !a.Rules.sections[i].MatchString(content) {
			out = append(out, newFinding(chapterID, CategoryStructure, SeverityError,
				"缺少必需章节: %s", s.Marker))
		}
	}

	n := len(a.Rules.quiz.FindAllStringIndex(content, -1))
	if want := a.Rules.Structure.MinQuizItems; n < want {
		out = append(out, newFinding(chapterID, CategoryStructure, SeverityWarning,
			"选择题数量不足: %d/%d", n, want))
	}
	return out
}

// CheckCode inspects every fenced block in the configured language.
func (a *Analyzer) CheckCode(chapterID string, outline *parser.Outline) []Finding {
	rules := a.Rules.Code
	var out []Finding
	for i, block := range outline.Blocks(rules.Language) {
		idx := i + 1
		code := block.Code

		if !containsAny(code, rules.CommentMarkers) {
			out = append(out, newFinding(chapterID, CategoryCode, SeverityWarning,
				"代码块 %d 缺少注释", idx))
		}

		if lines := strings.Count(strings.TrimSpace(code), "\n") + 1; lines > rules.MaxLines {
			out = append(out, newFinding(chapterID, CategoryCode, SeverityWarning,
				"代码块 %d 超过%d行 (%d行)", idx, rules.MaxLines, lines))
		}

		if !containsAny(code, rules.ImportMarkers) && containsAny(code, rules.LibraryCalls) {
			out = append(out, newFinding(chapterID, CategoryCode, SeverityError,
				"代码块 %d 使用了库但缺少import语句", idx))
		}

		if rules.CheckSyntax && a.Syntax != nil {
			if serr := a.Syntax.Check(code); serr != nil {
				out = append(out, newFinding(chapterID, CategoryCode, SeverityError,
					"代码块 %d 语法错误: %s (行%d)", idx, serr.Msg, serr.Line))
			}
		}
	}
	return out
}

// CheckImages reports local figures that are missing or unreadable and
// mermaid diagrams without a type declaration.
func (a *Analyzer) CheckImages(chapterID string, outline *parser.Outline) []Finding {
	rules := a.Rules.Images
	inspector := assets.Inspector{VerifyPDF: rules.VerifyPDF}

	var out []Finding
	for _, img := range outline.Images {
		dest := img.Destination
		if rules.RemotePrefix != "" && strings.HasPrefix(dest, rules.RemotePrefix) {
			continue
		}
		err := inspector.Inspect(a.resolve(dest))
		switch {
		case err == nil:
		case errors.Is(err, assets.ErrUnreadable):
			out = append(out, newFinding(chapterID, CategoryImages, SeverityError,
				"图片文件无法解析: %s", dest))
		default:
			// Permission errors count as missing too.
			out = append(out, newFinding(chapterID, CategoryImages, SeverityError,
				"图片文件不存在: %s", dest))
		}
	}

	for i, block := range outline.Blocks(rules.MermaidLanguage) {
		if !containsAny(block.Code, rules.MermaidKeywords) {
			out = append(out, newFinding(chapterID, CategoryImages, SeverityWarning,
				"Mermaid图表 %d 可能缺少类型声明", i+1))
		}
	}
	return out
}

// CheckStyle reports long paragraphs and academic phrasing.
func (a *Analyzer) CheckStyle(chapterID, content string) []Finding {
	rules := a.Rules.Style
	var out []Finding
	for idx, para := range strings.Split(content, "\n\n") {
		if hasAnyPrefix(para, rules.SkipPrefixes) {
			continue
		}
		if lines := strings.Count(strings.TrimSpace(para), "\n") + 1; lines > rules.MaxParagraphLines {
			out = append(out, newFinding(chapterID, CategoryStyle, SeverityWarning,
				"段落 %d 过长 (%d行)，建议拆分", idx, lines))
		}
	}

	for _, phrase := range rules.AcademicPhrases {
		if phrase != "" && strings.Contains(content, phrase) {
			out = append(out, newFinding(chapterID, CategoryStyle, SeverityWarning,
				"发现学术术语 \"%s\"，建议使用日常语言", phrase))
		}
	}
	return out
}

func (a *Analyzer) resolve(dest string) string {
	p := filepath.FromSlash(dest)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.BaseDir, p)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
