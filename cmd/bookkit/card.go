package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgallion1/bookkit/internal/card"
	"github.com/spf13/cobra"
)

type cardFlags struct {
	input    string
	shareURL string
	preview  bool
	update   bool
}

func newCardCmd(a *app) *cobra.Command {
	var f cardFlags
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Append a share card summarizing a chapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCard(cmd.OutOrStdout(), f, time.Now())
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "chapter markdown file")
	cmd.Flags().StringVar(&f.shareURL, "share-url", card.DefaultShareURL, "link copied by the card's share button")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "print the card without modifying the chapter")
	cmd.Flags().BoolVar(&f.update, "update", false, "only rewrite the share link of an existing card")
	_ = cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("preview", "update")
	return cmd
}

func (a *app) runCard(out io.Writer, f cardFlags, now time.Time) error {
	if f.update {
		if err := card.UpdateURL(f.input, f.shareURL); err != nil {
			return err
		}
		a.log.Info("share link updated", "chapter", f.input, "url", f.shareURL)
		fmt.Fprintln(out, successStyle.Render("✅ 分享链接已更新: "+f.shareURL))
		return nil
	}

	res, err := card.Insert(f.input, f.shareURL, now, f.preview)
	if errors.Is(err, card.ErrCardExists) {
		fmt.Fprintln(out, warnStyle.Render("⚠️  文章已包含总结卡片，跳过"))
		return nil
	}
	if err != nil {
		return err
	}

	if f.preview {
		if err := printMarkdown(out, summaryMarkdown(res.Summary)); err != nil {
			return err
		}
		fmt.Fprintln(out, res.HTML)
		return nil
	}
	a.log.Info("share card added", "chapter", f.input, "points", len(res.Points), "tags", len(res.Tags))
	fmt.Fprintln(out, successStyle.Render("✅ 已添加总结卡片: "+f.input))
	return nil
}

// summaryMarkdown lays out an extracted summary for terminal preview.
func summaryMarkdown(s card.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", s.Title, s.Summary)
	for i, p := range s.Points {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	if len(s.Tags) > 0 {
		b.WriteString("\n")
		for _, t := range s.Tags {
			fmt.Fprintf(&b, "`#%s` ", t)
		}
		b.WriteString("\n")
	}
	return b.String()
}
