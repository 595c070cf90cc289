package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Options control annotation thresholds and presentation.
type Options struct {
	SlowestRatio float64
	HotRatio     float64
	Styler       Styler
	Layout       string
}

func DefaultOptions() Options {
	return Options{
		SlowestRatio: DefaultSlowestRatio,
		HotRatio:     DefaultHotRatio,
		Styler:       PlainStyler{},
		Layout:       LayoutLines,
	}
}

// Generator runs the full pipeline: index, reconstruct, annotate, render.
// Each call to Build or Generate uses its own table and expansion counter, so
// a Generator may be shared between goroutines.
type Generator struct {
	logger zerolog.Logger
	opts   Options
}

func New(logger zerolog.Logger, opts Options) *Generator {
	if opts.SlowestRatio == 0 {
		opts.SlowestRatio = DefaultSlowestRatio
	}
	if opts.HotRatio == 0 {
		opts.HotRatio = DefaultHotRatio
	}
	return &Generator{
		logger: logger,
		opts:   opts,
	}
}

// Build returns the annotated lines for a snapshot without rendering them.
func (g *Generator) Build(stats []RawStat, totalRunTime float64) ([]AnnotatedLine, error) {
	table, err := NewStatTable(stats)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}

	lines, err := Reconstruct(table)
	if err != nil {
		return nil, fmt.Errorf("reconstruct call tree: %w", err)
	}

	annotator := &Annotator{
		SlowestRatio: g.opts.SlowestRatio,
		HotRatio:     g.opts.HotRatio,
	}
	annotated := annotator.Annotate(lines, totalRunTime)

	counts := make(map[Highlight]int)
	for _, line := range annotated {
		counts[line.Highlight]++
	}
	g.logger.Debug().
		Int("stats", table.Len()).
		Int("lines", len(annotated)).
		Int("slowest_call", counts[HighlightSlowestCall]).
		Int("hot_subtree", counts[HighlightHotSubtree]).
		Float64("total_run_time", totalRunTime).
		Msg("report built")
	return annotated, nil
}

// Generate writes the rendered report to w. Nothing is written unless the
// whole report could be built.
func (g *Generator) Generate(w io.Writer, stats []RawStat, totalRunTime float64) error {
	lines, err := g.Build(stats, totalRunTime)
	if err != nil {
		return err
	}
	return g.Render(w, lines, totalRunTime)
}

// Render writes already built lines to w in one piece.
func (g *Generator) Render(w io.Writer, lines []AnnotatedLine, totalRunTime float64) error {
	var buf bytes.Buffer
	renderer := &Renderer{
		Styler: g.opts.Styler,
		Layout: g.opts.Layout,
	}
	if err := renderer.Render(&buf, lines, totalRunTime); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	_, err := buf.WriteTo(w)
	return err
}

// RootTotal is the fallback run time when the caller has none: the largest
// total time of any entry.
func RootTotal(stats []RawStat) float64 {
	total := 0.0
	for _, stat := range stats {
		if stat.TotalTime > total {
			total = stat.TotalTime
		}
	}
	return total
}
