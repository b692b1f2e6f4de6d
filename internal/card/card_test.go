package card

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/bookkit/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sampleChapter = `# Go 并发编程入门

## 本章导读

本章通过大量示例讲解 goroutine 与 channel 的使用方法和常见陷阱。

**goroutine 是轻量级线程**，而 **注意：** 不计入。

- 使用 channel 在协程间通信
- 短
`

var cardTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestExtract(t *testing.T) {
	s := Extract(sampleChapter)

	assert.Equal(t, "Go 并发编程入门", s.Title)
	assert.Equal(t, "本章通过大量示例讲解 goroutine 与 channel 的使用方法和常见陷阱。", s.Summary)
	assert.Equal(t, []string{
		"goroutine 是轻量级线程",
		"使用 channel 在协程间通信",
		"本章通过大量示例讲解 goroutine 与 channel 的使用方法和常见陷阱。",
	}, s.Points)
	assert.Equal(t, []string{"Go", "编程", "入门"}, s.Tags)
}

func TestExtract_Defaults(t *testing.T) {
	s := Extract("## 只有二级标题\n\n短句。\n")

	assert.Equal(t, DefaultTitle, s.Title)
	assert.Equal(t, DefaultSummary, s.Summary)
	assert.Empty(t, s.Points)
	assert.Empty(t, s.Tags)
}

func TestExtract_SummaryStripsMarkup(t *testing.T) {
	s := Extract("# 标题\n\n```\n这是一段代码块里的内容不能当作摘要使用的文字\n```\n\n这是 **加粗** 的摘要文字，长度刚好超过二十个字符了吧。\n")
	assert.Equal(t, "这是 加粗 的摘要文字，长度刚好超过二十个字符了吧。", s.Summary)
}

func TestExtract_PointLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("**要点编号" + string(rune('A'+i)) + "**\n\n")
	}
	s := Extract(b.String())
	assert.Len(t, s.Points, MaxPoints)
	assert.Equal(t, "要点编号A", s.Points[0])
}

func TestExtract_TagLimit(t *testing.T) {
	s := Extract("Python JavaScript Java React Vue Docker Kubernetes 微服务 前端 后端")
	assert.Len(t, s.Tags, MaxTags)
	assert.Equal(t, "Python", s.Tags[0])
}

func TestRender(t *testing.T) {
	s := Summary{
		Title:   "<b>标题</b>",
		Summary: "摘要",
		Points:  []string{"第一点", "第二点"},
		Tags:    []string{"Go", "教程"},
	}
	out, err := Render(s, "", cardTime)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, Marker+"\n"))
	assert.Contains(t, out, "2026年03月14日")
	assert.Contains(t, out, "copyArticleLink('https://your-book-url.com')")
	assert.Contains(t, out, "&lt;b&gt;标题&lt;/b&gt;")
	assert.Contains(t, out, `<span class="card-tag">#Go</span> <span class="card-tag">#教程</span>`)
	assert.Contains(t, out, "linear-gradient(135deg, #F0F9FF 0%")
	assert.NotContains(t, out, "ZgotmplZ")

	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)
	require.NotNil(t, parser.FindByClass(doc, "article-summary-card"))
	num := parser.FindByClass(doc, "point-number")
	require.NotNil(t, num)
	assert.Equal(t, "1", parser.HTMLText(renderNode(t, num)))
}

func renderNode(t *testing.T, n *html.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, html.Render(&b, n))
	return b.String()
}

func TestRender_RejectsBadURL(t *testing.T) {
	for _, link := range []string{"javascript:alert(1)", "https://x.com/'a", "ftp://x.com"} {
		_, err := Render(Summary{}, link, cardTime)
		assert.Error(t, err, link)
	}
}

func writeChapter(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ch01.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInsert(t *testing.T) {
	path := writeChapter(t, sampleChapter+"\n\n\n")

	res, err := Insert(path, "https://example.com/book?a=1&b=2", cardTime, false)
	require.NoError(t, err)
	assert.Equal(t, "Go 并发编程入门", res.Title)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, strings.TrimRight(sampleChapter, "\n")+"\n\n"+res.HTML+"\n", content)
	assert.Contains(t, content, "copyArticleLink('https://example.com/book?a=1&amp;b=2')")
	assert.True(t, HasCard(content))

	_, err = Insert(path, "", cardTime, false)
	assert.True(t, errors.Is(err, ErrCardExists))
}

func TestInsert_Preview(t *testing.T) {
	path := writeChapter(t, sampleChapter)

	res, err := Insert(path, "", cardTime, true)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "article-summary-card")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleChapter, string(data))
}

func TestHasCard(t *testing.T) {
	assert.False(t, HasCard(sampleChapter))
	assert.False(t, HasCard("文中提到 article-summary-card 这个类名"))
	assert.True(t, HasCard(`<div class="article-summary-card" id="summaryCard"></div>`))
	assert.True(t, HasCard(Marker))
}

func TestUpdateURL(t *testing.T) {
	path := writeChapter(t, sampleChapter)
	_, err := Insert(path, "", cardTime, false)
	require.NoError(t, err)

	require.NoError(t, UpdateURL(path, "https://book.example.com/ch01$1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "copyArticleLink('https://book.example.com/ch01$1')")
	assert.NotContains(t, string(data), DefaultShareURL)
}

func TestUpdateURL_NoCard(t *testing.T) {
	path := writeChapter(t, sampleChapter)
	err := UpdateURL(path, "https://book.example.com")
	assert.True(t, errors.Is(err, ErrNoCard))
}
