package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/bookkit/internal/proofread"
	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func result(chapters []string, findings ...proofread.Finding) *proofread.Result {
	c := &proofread.Collector{}
	c.Add(findings...)
	return &proofread.Result{Chapters: chapters, Findings: c, GeneratedAt: clock}
}

func finding(ch string, cat proofread.Category, sev proofread.Severity, msg string) proofread.Finding {
	return proofread.Finding{Chapter: ch, Category: cat, Severity: sev, Message: msg}
}

func TestMarkdown_WithFindings(t *testing.T) {
	res := result([]string{"ch01", "ch02", "ch03"},
		finding("ch02", proofread.CategoryStyle, proofread.SeverityWarning, `发现学术术语 "基于"，建议使用日常语言`),
		finding("ch01", proofread.CategoryStructure, proofread.SeverityError, "缺少必需章节: ## 章节测试"),
		finding("ch01", proofread.CategoryStructure, proofread.SeverityWarning, "选择题数量不足: 3/5"),
		finding("ch01", proofread.CategoryCode, proofread.SeverityError, "代码块 1 语法错误: '(' was never closed (行4)"),
	)

	want := "# 校对报告\n" +
		"\n" +
		"生成时间: 2026-03-14 09:26:53\n" +
		"\n" +
		"## 整体统计\n" +
		"- 总章节数: 3\n" +
		"- ❌ 严重问题: 2\n" +
		"- ⚠️  警告: 2\n" +
		"\n" +
		"---\n" +
		"\n" +
		"## 问题详情\n" +
		"\n" +
		"### ch01\n" +
		"\n" +
		"❌ **结构**: 缺少必需章节: ## 章节测试\n" +
		"❌ **代码**: 代码块 1 语法错误: '(' was never closed (行4)\n" +
		"⚠️  **结构**: 选择题数量不足: 3/5\n" +
		"\n" +
		"### ch02\n" +
		"\n" +
		"⚠️  **风格**: 发现学术术语 \"基于\"，建议使用日常语言\n" +
		"\n" +
		"## 修改建议\n" +
		"\n" +
		"1. 优先修复所有 ❌ 标记的严重问题\n" +
		"2. 根据实际情况处理 ⚠️ 标记的警告\n" +
		"3. 修改完成后重新运行校对\n" +
		"\n"

	got := Build(res).Markdown()
	if got != want {
		t.Errorf("markdown mismatch\nexpected:\n%s\ngot:\n%s", want, got)
	}
}

func TestMarkdown_AllPassed(t *testing.T) {
	got := Build(result([]string{"ch01"})).Markdown()

	want := "# 校对报告\n\n生成时间: 2026-03-14 09:26:53\n\n## 整体统计\n- 总章节数: 1\n- ❌ 严重问题: 0\n- ⚠️  警告: 0\n\n---\n\n## ✅ 所有检查通过\n\n"
	assert.Equal(t, want, got)
}

func TestBuild_Deterministic(t *testing.T) {
	fs := []proofread.Finding{
		finding("b", proofread.CategoryImages, proofread.SeverityError, "图片文件不存在: x.png"),
		finding("a", proofread.CategoryStyle, proofread.SeverityWarning, "w"),
	}
	first := Build(result([]string{"a", "b"}, fs...)).Markdown()
	second := Build(result([]string{"a", "b"}, fs...)).Markdown()
	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "### a"), strings.Index(first, "### b"))
}

func TestWriteJSON(t *testing.T) {
	res := result([]string{"ch01", "ch02"},
		finding("ch01", proofread.CategoryCode, proofread.SeverityError, "代码块 1 缺少注释 <x>"))

	var buf bytes.Buffer
	require.NoError(t, Build(res).WriteJSON(&buf))
	assert.Contains(t, buf.String(), "<x>", "html should not be escaped")

	var decoded struct {
		GeneratedAt string `json:"generated_at"`
		Chapters    int    `json:"chapters"`
		Errors      int    `json:"errors"`
		Groups      []struct {
			Chapter string              `json:"chapter"`
			Errors  []proofread.Finding `json:"errors"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2026-03-14 09:26:53", decoded.GeneratedAt)
	assert.Equal(t, 2, decoded.Chapters)
	assert.Equal(t, 1, decoded.Errors)
	require.Len(t, decoded.Groups, 1)
	assert.Equal(t, "ch01", decoded.Groups[0].Chapter)
	assert.Equal(t, proofread.CategoryCode, decoded.Groups[0].Errors[0].Category)
}

func docxText(t *testing.T, data []byte) string {
	t.Helper()
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if txt, ok := rc.(*docx.Text); ok {
					b.WriteString(txt.Text)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestWriteDOCX(t *testing.T) {
	res := result([]string{"ch01"},
		finding("ch01", proofread.CategoryImages, proofread.SeverityError, "图片文件不存在: images/a.png"))

	var buf bytes.Buffer
	require.NoError(t, Build(res).WriteDOCX(&buf))

	text := docxText(t, buf.Bytes())
	assert.Contains(t, text, "校对报告")
	assert.Contains(t, text, "总章节数: 1")
	assert.Contains(t, text, "ch01")
	assert.Contains(t, text, "插图: 图片文件不存在: images/a.png")
	assert.Contains(t, text, "修改建议")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "校对报告.md")
	r := Build(result([]string{"ch01"}))
	require.NoError(t, r.WriteFile(path, FormatMarkdown))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Markdown(), string(data))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "md": FormatMarkdown, "JSON": FormatJSON, "docx": FormatDOCX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteFile_RerunIsByteIdentical(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chapters")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	chapters := map[string]string{
		"ch01.md": "# 第一章\n\n## 本章导读\n\n本章基于实际项目进行讲解。\n\n![图](images/missing.png)\n\n```python\ndef f(:\n    pass\n```\n",
		"ch02.md": "# 第二章\n\n```python\nprint \"hi\"\n```\n\n1. 问题一\n",
	}
	for name, content := range chapters {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	out := t.TempDir()
	run := func(name string) (md, js []byte) {
		t.Helper()
		r := proofread.NewRunner(nil, nil)
		r.Now = func() time.Time { return clock }
		res, err := r.Run(context.Background(), proofread.Options{Dir: dir})
		require.NoError(t, err)

		rep := Build(res)
		mdPath := filepath.Join(out, name+".md")
		jsPath := filepath.Join(out, name+".json")
		require.NoError(t, rep.WriteFile(mdPath, FormatMarkdown))
		require.NoError(t, rep.WriteFile(jsPath, FormatJSON))

		md, err = os.ReadFile(mdPath)
		require.NoError(t, err)
		js, err = os.ReadFile(jsPath)
		require.NoError(t, err)
		return md, js
	}

	md1, js1 := run("first")
	md2, js2 := run("second")

	require.True(t, bytes.Contains(md1, []byte("### ch01")), "report should list findings:\n%s", md1)
	assert.Less(t, bytes.Index(md1, []byte("### ch01")), bytes.Index(md1, []byte("### ch02")))
	assert.Equal(t, string(md1), string(md2))
	assert.Equal(t, string(js1), string(js2))
}
