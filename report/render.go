package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xlab/treeprint"
)

const (
	header = " total   cumm single"
	legend = `
    total  - total wall time to run the function call (including subcalls)
    cumm   - total wall time for the function itself (removing subcalls)
    single - time spent on a _single_ execution (average time, really)
`
	rulerStep = 7
	rulerFill = '.'
)

// Indent returns the depth+1 wide indentation field. Every seventh column is a
// dot so deep nesting can be followed by eye.
func Indent(depth int) string {
	field := []byte(strings.Repeat(" ", depth+1))
	for i := rulerStep; i < len(field); i += rulerStep {
		field[i] = rulerFill
	}
	return string(field)
}

// FormatRow formats a line without any styling.
func FormatRow(line ProfileLine) string {
	return fmt.Sprintf("%6.4f %6.4f %6.4f %s%s [%d calls]",
		line.TotalTime,
		line.SelfTime,
		line.AvgTime,
		Indent(line.Depth),
		line.Name,
		line.CallCount,
	)
}

func summary(totalRunTime float64) string {
	return fmt.Sprintf("Total time: %6.4fs", totalRunTime)
}

const (
	LayoutLines = "lines"
	LayoutTree  = "tree"
)

var Layouts = []string{LayoutLines, LayoutTree}

// Renderer writes annotated lines as a text report.
type Renderer struct {
	Styler Styler
	Layout string
}

func (r *Renderer) styler() Styler {
	if r.Styler == nil {
		return PlainStyler{}
	}
	return r.Styler
}

func (r *Renderer) Render(w io.Writer, lines []AnnotatedLine, totalRunTime float64) error {
	var body string
	switch r.Layout {
	case LayoutLines, "":
		body = r.rows(lines)
	case LayoutTree:
		body = r.tree(lines, totalRunTime)
	default:
		return fmt.Errorf("unknown layout %q", r.Layout)
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n%s", body, legend, summary(totalRunTime)+"\n")
	return err
}

func (r *Renderer) rows(lines []AnnotatedLine) string {
	styler := r.styler()
	var sb strings.Builder
	sb.WriteString(header)
	for _, line := range lines {
		sb.WriteByte('\n')
		sb.WriteString(styler.Style(FormatRow(line.ProfileLine), line.Highlight))
	}
	return sb.String()
}

// tree lays the same lines out with box drawing branches. Depth only ever
// grows by one between consecutive lines, so the open branches form a stack.
func (r *Renderer) tree(lines []AnnotatedLine, totalRunTime float64) string {
	styler := r.styler()
	root := treeprint.NewWithRoot(fmt.Sprintf("run %6.4fs", totalRunTime))
	branches := make([]treeprint.Tree, 0)
	for _, line := range lines {
		parent := root
		depth := line.Depth
		if depth > len(branches) {
			depth = len(branches)
		}
		if depth > 0 {
			parent = branches[depth-1]
		}
		label := fmt.Sprintf("%s [%d calls] total=%.4f cumm=%.4f single=%.4f",
			line.Name, line.CallCount, line.TotalTime, line.SelfTime, line.AvgTime)
		branch := parent.AddBranch(styler.Style(label, line.Highlight))
		branches = append(branches[:depth], branch)
	}
	return strings.TrimRight(root.String(), "\n")
}
