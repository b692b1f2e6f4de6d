// Package proofread runs the chapter quality checks and collects their
// findings.
package proofread

import (
	"fmt"
	"strings"
)

// Category groups related checks.
type Category string

const (
	CategoryStructure Category = "structure"
	CategoryCode      Category = "code"
	CategoryImages    Category = "images"
	CategoryStyle     Category = "style"
)

// Categories lists every category in the order checks run.
var Categories = []Category{CategoryStructure, CategoryCode, CategoryImages, CategoryStyle}

var categoryLabels = map[Category]string{
	CategoryStructure: "结构",
	CategoryCode:      "代码",
	CategoryImages:    "插图",
	CategoryStyle:     "风格",
}

// Label returns the report label for c.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Severity is error or warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one reported issue.
type Finding struct {
	Chapter  string   `json:"chapter"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func newFinding(chapter string, cat Category, sev Severity, format string, args ...any) Finding {
	return Finding{
		Chapter:  chapter,
		Category: cat,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Collector accumulates findings for one run in the order they were added.
// It is owned by a single goroutine.
type Collector struct {
	findings []Finding
	errors   int
}

// Add appends findings.
func (c *Collector) Add(fs ...Finding) {
	for _, f := range fs {
		if f.Severity == SeverityError {
			c.errors++
		}
		c.findings = append(c.findings, f)
	}
}

// Findings returns a copy of every finding in insertion order.
func (c *Collector) Findings() []Finding {
	out := make([]Finding, len(c.findings))
	copy(out, c.findings)
	return out
}

// Errors returns the error findings in insertion order.
func (c *Collector) Errors() []Finding { return c.filter(SeverityError) }

// Warnings returns the warning findings in insertion order.
func (c *Collector) Warnings() []Finding { return c.filter(SeverityWarning) }

// ErrorCount returns the number of error findings.
func (c *Collector) ErrorCount() int { return c.errors }

// WarningCount returns the number of warning findings.
func (c *Collector) WarningCount() int { return len(c.findings) - c.errors }

// Len returns the total number of findings.
func (c *Collector) Len() int { return len(c.findings) }

func (c *Collector) filter(sev Severity) []Finding {
	var out []Finding
	for _, f := range c.findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

// CategorySet is the set of enabled categories.
type CategorySet map[Category]bool

// AllCategories enables every category.
func AllCategories() CategorySet {
	set := make(CategorySet, len(Categories))
	for _, c := range Categories {
		set[c] = true
	}
	return set
}

// ParseCategories parses "all" or a comma-separated category list. "language"
// is accepted for style. Unknown names are returned separately and otherwise
// ignored.
func ParseCategories(s string) (CategorySet, []string) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllCategories(), nil
	}

	set := CategorySet{}
	var unknown []string
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "":
			continue
		case "all":
			for _, c := range Categories {
				set[c] = true
			}
		case "language":
			set[CategoryStyle] = true
		case string(CategoryStructure), string(CategoryCode), string(CategoryImages), string(CategoryStyle):
			set[Category(name)] = true
		default:
			unknown = append(unknown, part)
		}
	}
	return set, unknown
}

// String renders the set in check order.
func (s CategorySet) String() string {
	var names []string
	for _, c := range Categories {
		if s[c] {
			names = append(names, string(c))
		}
	}
	if len(names) == len(Categories) {
		return "all"
	}
	return strings.Join(names, ",")
}
