package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	maxChartRules  = 25
	xAxisRotate    = 60
	chartPageWidth = "100%"
	chartHeight    = "500px"
)

// RenderHTML writes a self-contained HTML page charting rule-usage counts
// across summary, most-applied rule first, capped at maxChartRules bars so
// a run with hundreds of distinct rules stays legible.
func RenderHTML(summary Summary, w io.Writer) error {
	names := topRules(summary.RuleUsage)
	if len(names) > maxChartRules {
		names = names[:maxChartRules]
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartPageWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Rewrite rule usage"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Applications"}),
	)
	bar.SetXAxis(names)

	data := make([]opts.BarData, len(names))
	for i, name := range names {
		data[i] = opts.BarData{Value: summary.RuleUsage[name]}
	}

	bar.AddSeries("Rules", data)

	return bar.Render(w)
}
