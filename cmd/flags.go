package cmd

import (
	"fmt"

	"github.com/coder/serpent"

	"github.com/Emyrk/profreport/report"
)

// reportFlags are the presentation options shared by every command that
// prints a report.
type reportFlags struct {
	color        string
	layout       string
	slowestRatio float64
	hotRatio     float64
}

func (f *reportFlags) Attach(cmd *serpent.Command) {
	cmd.Options = append(cmd.Options,
		serpent.Option{
			Name:        "color",
			Description: "Highlight slowest calls and hot subtrees with color.",
			Flag:        "color",
			Env:         "PROFREPORT_COLOR",
			Default:     report.ColorAuto,
			Value:       serpent.EnumOf(&f.color, report.ColorModes...),
			Group:       GroupReport,
		},
		serpent.Option{
			Name:        "layout",
			Description: "Report layout, indented lines or a branch drawn tree.",
			Flag:        "layout",
			Default:     report.LayoutLines,
			Value:       serpent.EnumOf(&f.layout, report.Layouts...),
			Group:       GroupReport,
		},
		serpent.Option{
			Name:        "slowest-ratio",
			Description: "Lines whose single call time reaches this fraction of the slowest single call are highlighted.",
			Flag:        "slowest-ratio",
			Default:     "0.85",
			Value:       serpent.Float64Of(&f.slowestRatio),
			Group:       GroupReport,
		},
		serpent.Option{
			Name:        "hot-ratio",
			Description: "Frames whose total time exceeds this fraction of the run time highlight their subtree.",
			Flag:        "hot-ratio",
			Default:     "0.10",
			Value:       serpent.Float64Of(&f.hotRatio),
			Group:       GroupReport,
		},
	)
}

func (f *reportFlags) Options(inv *serpent.Invocation) (report.Options, error) {
	if f.slowestRatio <= 0 || f.hotRatio <= 0 {
		return report.Options{}, fmt.Errorf("--slowest-ratio and --hot-ratio must be positive")
	}
	styler, err := report.StylerFor(f.color, inv.Stdout)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{
		SlowestRatio: f.slowestRatio,
		HotRatio:     f.hotRatio,
		Styler:       styler,
		Layout:       f.layout,
	}, nil
}
