package report

import "fmt"

type Highlight int

const (
	HighlightNone Highlight = iota
	// HighlightSlowestCall marks lines whose single call average is close to
	// the slowest one in the report.
	HighlightSlowestCall
	// HighlightHotSubtree marks lines nested under a frame that accounts for
	// a large share of the run time.
	HighlightHotSubtree
)

func (h Highlight) String() string {
	switch h {
	case HighlightNone:
		return "none"
	case HighlightSlowestCall:
		return "slowest_call"
	case HighlightHotSubtree:
		return "hot_subtree"
	default:
		return fmt.Sprintf("highlight(%d)", int(h))
	}
}

const (
	DefaultSlowestRatio = 0.85
	DefaultHotRatio     = 0.10
)

type AnnotatedLine struct {
	ProfileLine
	Highlight Highlight
}

// Annotator classifies lines for emphasis.
type Annotator struct {
	// SlowestRatio is the fraction of the maximum average a line must reach
	// to count as a slowest call.
	SlowestRatio float64
	// HotRatio is the fraction of the total run time a line's total time must
	// exceed to open a hot window.
	HotRatio float64
}

func NewAnnotator() *Annotator {
	return &Annotator{
		SlowestRatio: DefaultSlowestRatio,
		HotRatio:     DefaultHotRatio,
	}
}

// hotWindow tracks the currently open hot subtree while scanning lines in
// order. A window opened at depth d covers the following lines deeper than d.
type hotWindow struct {
	open  bool
	depth int
}

// covers closes the window if the line is not nested under it, and reports
// whether the line is inside.
func (w *hotWindow) covers(depth int) bool {
	if w.open && depth <= w.depth {
		w.open = false
	}
	return w.open
}

func (w *hotWindow) reopen(depth int) {
	w.open = true
	w.depth = depth
}

// Annotate classifies every line. totalRunTime is the wall clock duration of
// the measured run in seconds.
func (a *Annotator) Annotate(lines []ProfileLine, totalRunTime float64) []AnnotatedLine {
	maxAvg := 0.0
	for i, line := range lines {
		if i == 0 || line.AvgTime > maxAvg {
			maxAvg = line.AvgTime
		}
	}

	slowest := a.SlowestRatio * maxAvg
	hot := a.HotRatio * totalRunTime

	annotated := make([]AnnotatedLine, 0, len(lines))
	var window hotWindow
	for _, line := range lines {
		inside := window.covers(line.Depth)
		if line.TotalTime > hot {
			window.reopen(line.Depth)
		}

		highlight := HighlightNone
		switch {
		case line.AvgTime >= slowest:
			highlight = HighlightSlowestCall
		case inside:
			highlight = HighlightHotSubtree
		}
		annotated = append(annotated, AnnotatedLine{
			ProfileLine: line,
			Highlight:   highlight,
		})
	}
	return annotated
}
