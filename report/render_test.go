package report_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Emyrk/profreport/report"
)

func TestIndent(t *testing.T) {
	require.Equal(t, " ", report.Indent(0))
	require.Equal(t, "       ", report.Indent(6))
	require.Equal(t, "       .", report.Indent(7))
	require.Equal(t, "       .      .  ", report.Indent(16))
}

func TestFormatRow(t *testing.T) {
	row := report.FormatRow(report.ProfileLine{
		Depth:     1,
		Name:      "B",
		CallCount: 1,
		SelfTime:  0.8,
		TotalTime: 0.8,
		AvgTime:   0.8,
	})
	require.Equal(t, "0.8000 0.8000 0.8000   B [1 calls]", row)
}

func TestRenderExample(t *testing.T) {
	lines := report.NewAnnotator().Annotate(reconstruct(t, exampleStats()), 1.0)

	var buf bytes.Buffer
	err := (&report.Renderer{}).Render(&buf, lines, 1.0)
	require.NoError(t, err)

	expected := strings.Join([]string{
		" total   cumm single",
		"1.0000 0.2000 1.0000  A [1 calls]",
		"0.8000 0.8000 0.8000   B [1 calls]",
		"0.0500 0.0500 0.0500  C [1 calls]",
		"",
		"    total  - total wall time to run the function call (including subcalls)",
		"    cumm   - total wall time for the function itself (removing subcalls)",
		"    single - time spent on a _single_ execution (average time, really)",
		"",
		"Total time: 1.0000s",
		"",
	}, "\n")
	require.Equal(t, expected, buf.String())
}

func TestRenderColor(t *testing.T) {
	lines := report.NewAnnotator().Annotate(reconstruct(t, exampleStats()), 1.0)

	var plain, colored bytes.Buffer
	require.NoError(t, (&report.Renderer{Styler: report.PlainStyler{}}).Render(&plain, lines, 1.0))
	require.NoError(t, (&report.Renderer{Styler: report.NewColorStyler()}).Render(&colored, lines, 1.0))

	out := colored.String()
	require.Contains(t, out, "\x1b[31m1.0000 0.2000 1.0000  A [1 calls]\x1b[")
	require.Contains(t, out, "\x1b[34m0.8000 0.8000 0.8000   B [1 calls]\x1b[")
	require.Contains(t, out, "\n0.0500 0.0500 0.0500  C [1 calls]\n")
	require.Equal(t, plain.String(), stripANSI(out))
}

func TestRenderTree(t *testing.T) {
	lines := report.NewAnnotator().Annotate(reconstruct(t, exampleStats()), 1.0)

	var buf bytes.Buffer
	err := (&report.Renderer{Layout: report.LayoutTree}).Render(&buf, lines, 1.0)
	require.NoError(t, err)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "run 1.0000s\n"), out)
	require.Contains(t, out, "A [1 calls] total=1.0000 cumm=0.2000 single=1.0000")
	require.Contains(t, out, "B [1 calls] total=0.8000 cumm=0.8000 single=0.8000")
	require.True(t, strings.HasSuffix(out, "Total time: 1.0000s\n"))

	err = (&report.Renderer{Layout: "flame"}).Render(&buf, lines, 1.0)
	require.ErrorContains(t, err, "unknown layout")
}

func TestParseRowRoundTrip(t *testing.T) {
	testCases := []report.ProfileLine{
		{Depth: 0, Name: "A", CallCount: 1, TotalTime: 1, SelfTime: 0.2, AvgTime: 1},
		{Depth: 7, Name: "raiden.transfer.mediated", CallCount: 12, TotalTime: 0.123456, SelfTime: 0.00004, AvgTime: 0.0102},
		{Depth: 22, Name: "<lambda> [closure]", CallCount: 1024, TotalTime: 1234.56789, SelfTime: 10.5, AvgTime: 1.2056},
		{Depth: 14, Name: ".hidden", CallCount: 0, TotalTime: 0, SelfTime: 0, AvgTime: 0},
	}

	for _, expected := range testCases {
		expected := expected
		t.Run(expected.Name, func(t *testing.T) {
			row := report.FormatRow(expected)
			got, err := report.ParseRow(row)
			require.NoError(t, err, row)

			require.Equal(t, expected.Depth, got.Depth)
			require.Equal(t, expected.Name, got.Name)
			require.Equal(t, expected.CallCount, got.CallCount)
			require.InDelta(t, round4(expected.TotalTime), got.TotalTime, 1e-9)
			require.InDelta(t, round4(expected.SelfTime), got.SelfTime, 1e-9)
			require.InDelta(t, round4(expected.AvgTime), got.AvgTime, 1e-9)
			// Formatting the parsed line again is stable.
			require.Equal(t, row, report.FormatRow(got))
		})
	}
}

func TestParseRowErrors(t *testing.T) {
	for _, row := range []string{
		"",
		"1.0000 0.2000",
		"1.0000 abc 1.0000  A [1 calls]",
		"1.0000 0.2000 1.0000 A [1 calls]",
		"1.0000 0.2000 1.0000  A",
		"1.0000 0.2000 1.0000  A [x calls]",
	} {
		_, err := report.ParseRow(row)
		require.Error(t, err, row)
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func stripANSI(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1b' {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
