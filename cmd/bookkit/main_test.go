package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProofread_WritesReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chapters", "ch01.md"), "# 第一章\n\n## 本章导读\n\n正文。\n")
	reportPath := filepath.Join(dir, "out", "report.json")

	out, err := execute(t, "proofread", "--input", filepath.Join(dir, "chapters"),
		"--output", reportPath, "--format", "json", "--checks", "structure,bogus")
	require.NoError(t, err, out)
	assert.Contains(t, out, "📖 检查章节: ch01.md")
	assert.Contains(t, out, "📋 检查项目: structure")
	assert.Contains(t, out, "严重问题: 5")
	assert.Contains(t, out, "ignoring unknown check categories")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, 1.0, rep["chapters"])
}

func TestProofread_MissingDirFails(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "proofread", "--input", filepath.Join(dir, "nope"), "--output", filepath.Join(dir, "r.md"))
	assert.ErrorContains(t, err, "chapters directory unavailable")
}

func TestProofread_BadRulesFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chapters", "ch01.md"), "# x\n")
	writeFile(t, filepath.Join(dir, "rules.yaml"), "version: 99\n")
	_, err := execute(t, "proofread", "--input", filepath.Join(dir, "chapters"),
		"--output", filepath.Join(dir, "r.md"), "--rules", filepath.Join(dir, "rules.yaml"))
	assert.Error(t, err)
}

func TestChart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.csv"), "月份,销量\n一月,120\n二月,200\n")
	out := filepath.Join(dir, "bar.html")

	stdout, err := execute(t, "chart", "--type", "bar", "--data", filepath.Join(dir, "data.csv"), "--output", out, "--title", "销量")
	require.NoError(t, err)
	assert.Contains(t, stdout, "图表已生成")

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>销量</title>")

	_, err = execute(t, "chart", "--type", "heatmap", "--data", filepath.Join(dir, "data.csv"), "--output", out)
	assert.Error(t, err)
}

const cardChapter = `# Go 并发编程

本章介绍 goroutine 与 channel 的基本用法，并通过实例演示如何编写安全的并发程序。

- **goroutine 是轻量级线程**
- **channel 用于通信**
`

func TestCard_PreviewLeavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ch01.md")
	writeFile(t, path, cardChapter)

	out, err := execute(t, "card", "--input", path, "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, "技术文章总结卡片")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cardChapter, string(data))
}

func TestCard_InsertThenUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ch01.md")
	writeFile(t, path, cardChapter)

	_, err := execute(t, "card", "--input", path)
	require.NoError(t, err)

	out, err := execute(t, "card", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "跳过")

	_, err = execute(t, "card", "--input", path, "--update", "--share-url", "https://book.example.com/ch01")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "copyArticleLink('https://book.example.com/ch01')")
	assert.Equal(t, 1, strings.Count(string(data), "article-summary-card\""))
}

func TestImage(t *testing.T) {
	png := []byte("\x89PNG test")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("Action") {
		case "CVSync2AsyncSubmitTask":
			w.Write([]byte(`{"code":10000,"data":{"task_id":"t1"}}`))
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"code": 10000,
				"data": map[string]any{"status": "done", "binary_data_base64": []string{base64.StdEncoding.EncodeToString(png)}},
			})
		}
	}))
	defer srv.Close()
	t.Setenv("VOLCENGINE_ENDPOINT", srv.URL)
	t.Setenv("IMAGE_POLL_INTERVAL", "1ms")

	out := filepath.Join(t.TempDir(), "img", "cover.png")
	stdout, err := execute(t, "image", "--prompt", "山水画", "--output", out, "--preset", "16:9", "--size", "2k", "--ak", "ak", "--sk", "sk")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "2560x1440")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestImage_InvalidRequest(t *testing.T) {
	_, err := execute(t, "image", "--prompt", "x", "--output", "a.png", "--scale", "2", "--ak", "ak", "--sk", "sk")
	assert.ErrorContains(t, err, "scale")
}
