package report

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"
)

const (
	colorError   = "C00000"
	colorWarning = "B8860B"
)

// WriteDOCX writes the report as a Word document with the same sections as
// the markdown layout.
func (r *Report) WriteDOCX(w io.Writer) error {
	doc := docx.New().WithDefaultTheme()

	heading := func(text, size string) {
		doc.AddParagraph().AddText(text).Bold().Size(size)
	}
	line := func(text string) {
		doc.AddParagraph().AddText(text)
	}

	heading("校对报告", "36")
	line("生成时间: " + r.GeneratedAt.Format(TimeLayout))

	heading("整体统计", "28")
	line(fmt.Sprintf("总章节数: %d", r.Chapters))
	line(fmt.Sprintf("严重问题: %d", r.Errors))
	line(fmt.Sprintf("警告: %d", r.Warnings))

	if len(r.Groups) > 0 {
		heading("问题详情", "28")
		for _, g := range r.Groups {
			heading(g.Chapter, "24")
			for _, f := range g.Errors {
				p := doc.AddParagraph()
				p.AddText("❌ " + f.Category.Label() + ": ").Bold().Color(colorError)
				p.AddText(f.Message)
			}
			for _, f := range g.Warnings {
				p := doc.AddParagraph()
				p.AddText("⚠️ " + f.Category.Label() + ": ").Bold().Color(colorWarning)
				p.AddText(f.Message)
			}
		}
	} else {
		heading("✅ 所有检查通过", "28")
	}

	if r.HasFindings() {
		heading("修改建议", "28")
		for _, s := range remediation {
			line(s)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
