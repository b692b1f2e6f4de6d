// Package report turns a proofreading run into the 校对报告 document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/bookkit/internal/proofread"
)

// TimeLayout formats the 生成时间 line.
const TimeLayout = "2006-01-02 15:04:05"

// Report is the aggregated view of one run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Chapters    int       `json:"chapters"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
	Groups      []Group   `json:"groups"`
}

// Group holds one chapter's findings, errors first.
type Group struct {
	Chapter  string              `json:"chapter"`
	Errors   []proofread.Finding `json:"errors"`
	Warnings []proofread.Finding `json:"warnings"`
}

// Build groups the findings of res by chapter in ascending chapter order.
// Chapters without findings are counted but get no group.
func Build(res *proofread.Result) *Report {
	r := &Report{
		GeneratedAt: res.GeneratedAt,
		Chapters:    len(res.Chapters),
		Errors:      res.Findings.ErrorCount(),
		Warnings:    res.Findings.WarningCount(),
	}

	byChapter := make(map[string]*Group)
	group := func(ch string) *Group {
		g, ok := byChapter[ch]
		if !ok {
			g = &Group{Chapter: ch}
			byChapter[ch] = g
		}
		return g
	}
	for _, f := range res.Findings.Errors() {
		g := group(f.Chapter)
		g.Errors = append(g.Errors, f)
	}
	for _, f := range res.Findings.Warnings() {
		g := group(f.Chapter)
		g.Warnings = append(g.Warnings, f)
	}

	names := make([]string, 0, len(byChapter))
	for ch := range byChapter {
		names = append(names, ch)
	}
	sort.Strings(names)
	for _, ch := range names {
		r.Groups = append(r.Groups, *byChapter[ch])
	}
	return r
}

// HasFindings reports whether any chapter has findings.
func (r *Report) HasFindings() bool {
	return r.Errors+r.Warnings > 0
}

var remediation = []string{
	"1. 优先修复所有 ❌ 标记的严重问题",
	"2. 根据实际情况处理 ⚠️ 标记的警告",
	"3. 修改完成后重新运行校对",
}

// Markdown renders the report in its markdown layout.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 校对报告\n\n")
	fmt.Fprintf(&b, "生成时间: %s\n\n", r.GeneratedAt.Format(TimeLayout))
	fmt.Fprintf(&b, "## 整体统计\n")
	fmt.Fprintf(&b, "- 总章节数: %d\n", r.Chapters)
	fmt.Fprintf(&b, "- ❌ 严重问题: %d\n", r.Errors)
	fmt.Fprintf(&b, "- ⚠️  警告: %d\n\n", r.Warnings)
	b.WriteString("---\n\n")

	if len(r.Groups) > 0 {
		b.WriteString("## 问题详情\n\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "### %s\n\n", g.Chapter)
			for _, f := range g.Errors {
				fmt.Fprintf(&b, "❌ **%s**: %s\n", f.Category.Label(), f.Message)
			}
			for _, f := range g.Warnings {
				fmt.Fprintf(&b, "⚠️  **%s**: %s\n", f.Category.Label(), f.Message)
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("## ✅ 所有检查通过\n\n")
	}

	if r.HasFindings() {
		b.WriteString("## 修改建议\n\n")
		for _, line := range remediation {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

type jsonReport struct {
	*Report
	GeneratedAt string `json:"generated_at"`
}

// WriteJSON writes the report as indented JSON. The timestamp uses the same
// layout as the markdown report.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonReport{Report: r, GeneratedAt: r.GeneratedAt.Format(TimeLayout)}); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
