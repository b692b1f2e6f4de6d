// Package card builds the share card appended to the end of a chapter.
package card

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/bookkit/internal/parser"
)

const (
	DefaultTitle   = "技术分享"
	DefaultSummary = "本文介绍了相关技术概念和实践方法。"
	MaxPoints      = 5
	MaxTags        = 8
)

// Summary is what a card shows about a chapter.
type Summary struct {
	Title   string
	Summary string
	Points  []string
	Tags    []string
}

var techKeywords = []string{
	"机器学习", "深度学习", "Python", "JavaScript", "Go", "Java",
	"React", "Vue", "Docker", "Kubernetes", "微服务", "前端", "后端",
	"算法", "数据结构", "数据库", "编程", "教程", "实战", "入门",
	"进阶", "架构", "设计模式", "性能优化", "最佳实践",
}

var (
	paragraphSep = regexp.MustCompile(`\n\n+`)
	boldSpan     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	listItem     = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)
)

// Extract pulls the card fields out of chapter markdown.
func Extract(content string) Summary {
	return Summary{
		Title:   extractTitle(content),
		Summary: extractSummary(content),
		Points:  extractPoints(content, MaxPoints),
		Tags:    extractTags(content),
	}
}

func extractTitle(content string) string {
	if title, ok := parser.Scan([]byte(content)).Title(); ok {
		return title
	}
	return DefaultTitle
}

func extractSummary(content string) string {
	for _, para := range paragraphSep.Split(content, -1) {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") || strings.HasPrefix(para, "```") {
			continue
		}
		text := parser.PlainText(para)
		if n := utf8.RuneCountInString(text); n >= 20 && n <= 200 {
			return text
		}
	}
	return DefaultSummary
}

func extractPoints(content string, limit int) []string {
	var points []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			points = append(points, p)
		}
	}

	for _, m := range boldSpan.FindAllStringSubmatch(content, -1) {
		item := strings.TrimSpace(m[1])
		n := utf8.RuneCountInString(item)
		if n >= 4 && n <= 50 && !strings.HasSuffix(item, "：") && !strings.HasSuffix(item, ":") {
			add(item)
		}
	}

	if len(points) < limit {
		for _, m := range listItem.FindAllStringSubmatch(content, -1) {
			item := strings.TrimSpace(m[1])
			if n := utf8.RuneCountInString(item); n >= 4 && n <= 80 {
				add(item)
			}
		}
	}

	if len(points) < limit {
		for _, line := range proseLines(content) {
			if n := utf8.RuneCountInString(line); n < 20 || n > 100 {
				continue
			}
			if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") ||
				strings.HasPrefix(line, "*") || strings.HasPrefix(line, "|") {
				continue
			}
			if p := strings.TrimSpace(line); p != "" {
				add(p)
			}
		}
	}

	if len(points) > limit {
		points = points[:limit]
	}
	return points
}

// proseLines returns the lines of content outside fenced code blocks.
func proseLines(content string) []string {
	var out []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			out = append(out, strings.TrimRight(line, "\r"))
		}
	}
	return out
}

func extractTags(content string) []string {
	lower := strings.ToLower(content)
	var tags []string
	for _, kw := range techKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			tags = append(tags, kw)
			if len(tags) == MaxTags {
				break
			}
		}
	}
	return tags
}
