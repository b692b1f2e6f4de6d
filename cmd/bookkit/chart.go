package main

import (
	"fmt"
	"io"

	"github.com/dgallion1/bookkit/internal/chart"
	"github.com/spf13/cobra"
)

type chartFlags struct {
	kind   string
	data   string
	title  string
	output string
}

func newChartCmd(a *app) *cobra.Command {
	var f chartFlags
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render JSON or CSV data as a standalone ECharts page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChart(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVarP(&f.kind, "type", "t", "", "chart type: bar, line, pie, scatter or radar")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "data file (.json or .csv)")
	cmd.Flags().StringVar(&f.title, "title", chart.DefaultTitle, "chart title")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output HTML file")
	for _, name := range []string{"type", "data", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) runChart(out io.Writer, f chartFlags) error {
	kind, err := chart.ParseKind(f.kind)
	if err != nil {
		return err
	}
	d, err := chart.Load(f.data, kind)
	if err != nil {
		return err
	}
	if err := chart.WriteFile(f.output, kind, f.title, d); err != nil {
		return err
	}
	a.log.Info("chart written", "type", kind, "path", f.output)
	fmt.Fprintln(out, successStyle.Render("✅ 图表已生成: "+f.output))
	return nil
}
