package proofread

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dgallion1/bookkit/internal/chapter"
	"github.com/dgallion1/bookkit/internal/pysyntax"
)

// ErrChaptersDir is returned when the chapters directory cannot be enumerated.
var ErrChaptersDir = errors.New("chapters directory unavailable")

// Options selects what one run checks.
type Options struct {
	Dir        string
	Pattern    string      // glob relative to Dir, default chapter.DefaultPattern
	Categories CategorySet // nil means all
}

// Result is the outcome of one run.
type Result struct {
	Dir         string
	Chapters    []string // chapter IDs in check order
	Categories  CategorySet
	Findings    *Collector
	GeneratedAt time.Time
	Duration    time.Duration
}

// Runner performs full proofreading passes. Runs must not overlap.
type Runner struct {
	Rules *Rules
	// Syntax validates code blocks. When nil, each run creates and closes a
	// tree-sitter checker.
	Syntax   pysyntax.Checker
	Log      *slog.Logger
	Progress io.Writer        // per-chapter progress lines, may be nil
	Now      func() time.Time // report clock, default time.Now
}

// NewRunner creates a runner with the given rules and logger.
func NewRunner(rules *Rules, log *slog.Logger) *Runner {
	if rules == nil {
		rules = DefaultRules()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{Rules: rules, Log: log, Now: time.Now}
}

// Run discovers the chapters under opts.Dir and checks each one in order.
// Chapter-level problems become findings; only an unusable directory or a
// cancelled context returns an error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	cats := opts.Categories
	if cats == nil {
		cats = AllCategories()
	}

	paths, err := chapter.Discover(opts.Dir, opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChaptersDir, err)
	}

	syntax := r.Syntax
	if syntax == nil && cats[CategoryCode] {
		ts := pysyntax.NewTreeSitter()
		defer ts.Close()
		syntax = ts
	}

	analyzer := &Analyzer{
		Rules:   r.Rules,
		Syntax:  syntax,
		BaseDir: filepath.Dir(filepath.Clean(opts.Dir)),
	}

	now := r.Now
	if now == nil {
		now = time.Now
	}
	start := time.Now()

	res := &Result{
		Dir:        opts.Dir,
		Categories: cats,
		Findings:   &Collector{},
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("proofread cancelled: %w", err)
		}

		id := chapter.IDFor(opts.Dir, path)
		res.Chapters = append(res.Chapters, id)
		r.progress("📖 检查章节: %s\n", displayName(opts.Dir, path))

		log := r.Log.With("chapter", id)
		doc, err := chapter.Load(opts.Dir, path)
		if err != nil {
			log.Warn("chapter unreadable", "error", err)
			res.Findings.Add(newFinding(id, CategoryStructure, SeverityError,
				"章节读取失败: %s", readReason(err)))
			continue
		}

		found := analyzer.Analyze(doc, cats)
		log.Debug("chapter checked", "findings", len(found))
		res.Findings.Add(found...)
	}

	res.GeneratedAt = now()
	res.Duration = time.Since(start)
	r.Log.Info("proofread complete",
		"dir", opts.Dir,
		"chapters", len(res.Chapters),
		"errors", res.Findings.ErrorCount(),
		"warnings", res.Findings.WarningCount(),
		"duration", res.Duration,
	)
	return res, nil
}

func (r *Runner) progress(format string, args ...any) {
	if r.Progress != nil {
		fmt.Fprintf(r.Progress, format, args...)
	}
}

func displayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func readReason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
