package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Styler applies the presentation of a highlight to an already formatted
// row. Implementations must not change the visible text.
type Styler interface {
	Style(text string, highlight Highlight) string
}

// PlainStyler is the fallback for targets that cannot show styled text.
type PlainStyler struct{}

func (PlainStyler) Style(text string, _ Highlight) string {
	return text
}

// ColorStyler renders slowest calls red and hot subtrees blue using ANSI
// escapes.
type ColorStyler struct {
	slowest *color.Color
	hot     *color.Color
}

func NewColorStyler() *ColorStyler {
	s := &ColorStyler{
		slowest: color.New(color.FgRed),
		hot:     color.New(color.FgBlue),
	}
	// The caller already decided the target supports color.
	s.slowest.EnableColor()
	s.hot.EnableColor()
	return s
}

func (s *ColorStyler) Style(text string, highlight Highlight) string {
	switch highlight {
	case HighlightSlowestCall:
		return s.slowest.Sprint(text)
	case HighlightHotSubtree:
		return s.hot.Sprint(text)
	default:
		return text
	}
}

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorModes lists the accepted values for StylerFor.
var ColorModes = []string{ColorAuto, ColorAlways, ColorNever}

// StylerFor picks a styler for the output. In auto mode color is used only
// when w is a terminal and color has not been disabled globally (NO_COLOR,
// TERM=dumb or a redirected stdout, see color.NoColor).
func StylerFor(mode string, w io.Writer) (Styler, error) {
	switch mode {
	case ColorAlways:
		return NewColorStyler(), nil
	case ColorNever:
		return PlainStyler{}, nil
	case ColorAuto, "":
		if color.NoColor {
			return PlainStyler{}, nil
		}
		f, ok := w.(*os.File)
		if !ok {
			return PlainStyler{}, nil
		}
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return NewColorStyler(), nil
		}
		return PlainStyler{}, nil
	default:
		return nil, fmt.Errorf("unknown color mode %q", mode)
	}
}
