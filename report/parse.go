package report

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRow reads back a plain row produced by FormatRow. Numbers are
// recovered to the four decimals they were printed with.
func ParseRow(row string) (ProfileLine, error) {
	var line ProfileLine
	rest := row
	values := make([]float64, 0, 3)
	for len(values) < 3 {
		rest = strings.TrimLeft(rest, " ")
		end := strings.IndexByte(rest, ' ')
		if end < 0 {
			return line, fmt.Errorf("row %q: expected 3 numeric columns", row)
		}
		v, err := strconv.ParseFloat(rest[:end], 64)
		if err != nil {
			return line, fmt.Errorf("row %q: column %d: %w", row, len(values)+1, err)
		}
		values = append(values, v)
		// Drop the single column separator, the indent field follows.
		rest = rest[end+1:]
	}
	line.TotalTime, line.SelfTime, line.AvgTime = values[0], values[1], values[2]

	width := 0
	for width < len(rest) {
		want := byte(' ')
		if width > 0 && width%rulerStep == 0 {
			want = rulerFill
		}
		if rest[width] != want {
			break
		}
		width++
	}
	if width == 0 {
		return line, fmt.Errorf("row %q: missing indentation", row)
	}
	line.Depth = width - 1
	rest = rest[width:]

	open := strings.LastIndex(rest, " [")
	if open < 0 || !strings.HasSuffix(rest, " calls]") {
		return line, fmt.Errorf("row %q: missing call count", row)
	}
	calls, err := strconv.Atoi(strings.TrimSuffix(rest[open+2:], " calls]"))
	if err != nil {
		return line, fmt.Errorf("row %q: call count: %w", row, err)
	}
	line.Name = rest[:open]
	line.CallCount = calls
	return line, nil
}
