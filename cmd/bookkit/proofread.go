package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dgallion1/bookkit/internal/proofread"
	"github.com/dgallion1/bookkit/internal/report"
	"github.com/dgallion1/bookkit/internal/watch"
	"github.com/spf13/cobra"
)

type proofreadFlags struct {
	input  string
	format string
	print  bool
	watch  bool
}

func newProofreadCmd(a *app) *cobra.Command {
	var f proofreadFlags
	cmd := &cobra.Command{
		Use:   "proofread",
		Short: "Check chapter structure, code, images and style and write a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProofread(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "chapters directory")
	cmd.Flags().StringVarP(&a.cfg.ReportPath, "output", "o", a.cfg.ReportPath, "report file")
	cmd.Flags().StringVar(&a.cfg.Checks, "checks", a.cfg.Checks, "all or a comma list of structure,code,images,style")
	cmd.Flags().StringVar(&a.cfg.RulesPath, "rules", a.cfg.RulesPath, "rules YAML file replacing the built-in rules")
	cmd.Flags().StringVar(&a.cfg.Pattern, "pattern", a.cfg.Pattern, "chapter file glob relative to the input directory")
	cmd.Flags().StringVar(&f.format, "format", "markdown", "report format: markdown, json or docx")
	cmd.Flags().BoolVar(&f.print, "print", false, "render the report to the terminal")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "re-run whenever a chapter changes")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// newRunner builds a runner and run options from the shared configuration.
func (a *app) newRunner(dir string) (*proofread.Runner, proofread.Options, error) {
	var rules *proofread.Rules
	if a.cfg.RulesPath != "" {
		r, err := proofread.LoadRules(a.cfg.RulesPath)
		if err != nil {
			return nil, proofread.Options{}, err
		}
		rules = r
	}

	cats, unknown := proofread.ParseCategories(a.cfg.Checks)
	if len(unknown) > 0 {
		a.log.Warn("ignoring unknown check categories", "categories", strings.Join(unknown, ","))
	}

	runner := proofread.NewRunner(rules, a.log)
	return runner, proofread.Options{Dir: dir, Pattern: a.cfg.Pattern, Categories: cats}, nil
}

func (a *app) runProofread(ctx context.Context, out io.Writer, f proofreadFlags) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	runner, opts, err := a.newRunner(f.input)
	if err != nil {
		return err
	}
	runner.Progress = out

	fmt.Fprintln(out, titleStyle.Render("🔍 开始质量校对..."))
	fmt.Fprintf(out, "📂 检查目录: %s\n", f.input)
	fmt.Fprintf(out, "📋 检查项目: %s\n\n", opts.Categories)

	once := func(ctx context.Context) error {
		res, err := runner.Run(ctx, opts)
		if err != nil {
			return err
		}
		rep := report.Build(res)
		if err := rep.WriteFile(a.cfg.ReportPath, format); err != nil {
			return err
		}
		a.log.Debug("report written", "path", a.cfg.ReportPath, "format", format)
		printSummary(out, rep, a.cfg.ReportPath)
		if f.print {
			return printMarkdown(out, rep.Markdown())
		}
		return nil
	}

	if err := once(ctx); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}

	w, err := watch.New(f.input, a.cfg.WatchDebounce, a.log)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, mutedStyle.Render("👀 监视章节变化中，按 Ctrl+C 退出"))
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		a.log.Info("chapters changed", "count", len(changed))
		err := once(ctx)
		if errors.Is(err, proofread.ErrChaptersDir) {
			a.log.Error("chapters directory unavailable", "error", err)
			return nil
		}
		return err
	})
}

func printSummary(out io.Writer, rep *report.Report, path string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, successStyle.Render("✅ 校对完成!"))
	fmt.Fprintf(out, "📄 报告已保存: %s\n", path)
	fmt.Fprintln(out, "\n统计:")
	fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("  - 严重问题: %d", rep.Errors)))
	fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("  - 警告: %d", rep.Warnings)))
}

func printMarkdown(out io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
