package pprofimport_test

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/pprofimport"
)

var fnMain = &profile.Function{ID: 1, Name: "main.main", SystemName: "main.main", Filename: "main.go", StartLine: 10}
var fnWork = &profile.Function{ID: 2, Name: "main.work", SystemName: "main.work", Filename: "main.go", StartLine: 20}
var fnHelper = &profile.Function{ID: 3, Name: "main.helper", SystemName: "main.helper", Filename: "main.go", StartLine: 30}

var locMain = &profile.Location{ID: 1, Line: []profile.Line{{Function: fnMain, Line: 12}}}
var locWork = &profile.Location{ID: 2, Line: []profile.Line{{Function: fnWork, Line: 22}}}
var locHelper = &profile.Location{ID: 3, Line: []profile.Line{{Function: fnHelper, Line: 31}}}

func testProfile() *profile.Profile {
	return &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		DurationNanos: 1e9,
		Sample: []*profile.Sample{
			{Location: []*profile.Location{locWork, locMain}, Value: []int64{2, 200e6}},
			{Location: []*profile.Location{locHelper, locWork, locMain}, Value: []int64{1, 100e6}},
			{Location: []*profile.Location{locMain}, Value: []int64{1, 50e6}},
			{Location: []*profile.Location{locWork, locWork, locMain}, Value: []int64{1, 50e6}},
		},
		Function: []*profile.Function{fnMain, fnWork, fnHelper},
		Location: []*profile.Location{locMain, locWork, locHelper},
	}
}

func TestFromProfile(t *testing.T) {
	stats, runTime, err := pprofimport.FromProfile(testProfile())
	require.NoError(t, err)
	require.InDelta(t, 1.0, runTime, 1e-9)
	require.Len(t, stats, 3)

	byName := make(map[string]report.RawStat)
	for _, st := range stats {
		byName[st.Name] = st
	}

	mainStat := byName["main.main"]
	require.Equal(t, 10, mainStat.Site)
	require.Equal(t, 0, mainStat.CallOrder)
	require.Equal(t, 1, mainStat.CallCount)
	require.InDelta(t, 0.4, mainStat.TotalTime, 1e-9)
	require.InDelta(t, 0.05, mainStat.SelfTime, 1e-9)
	require.InDelta(t, 0.4, mainStat.AvgTime, 1e-9)
	require.Equal(t, []report.Key{{Name: "main.work", Site: 20}}, mainStat.Children)

	work := byName["main.work"]
	require.Equal(t, 1, work.CallOrder)
	require.Equal(t, 1, work.CallCount)
	require.InDelta(t, 0.35, work.TotalTime, 1e-9)
	require.InDelta(t, 0.35, work.AvgTime, 1e-9)
	require.InDelta(t, 0.25, work.SelfTime, 1e-9)
	require.Equal(t, []report.Key{
		{Name: "main.helper", Site: 30},
		{Name: "main.work", Site: 20},
	}, work.Children)

	helper := byName["main.helper"]
	require.Equal(t, 2, helper.CallOrder)
	require.Equal(t, 1, helper.CallCount)
	require.InDelta(t, 0.1, helper.TotalTime, 1e-9)
	require.Empty(t, helper.Children)
}

func TestImportEncoded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testProfile().Write(&buf))

	stats, runTime, err := pprofimport.Import(&buf)
	require.NoError(t, err)
	require.InDelta(t, 1.0, runTime, 1e-9)

	table, err := report.NewStatTable(stats)
	require.NoError(t, err)
	lines, err := report.Reconstruct(table)
	require.NoError(t, err)

	names := make([]string, 0, len(lines))
	for _, line := range lines {
		names = append(names, report.Indent(line.Depth)+line.Name)
	}
	require.Equal(t, []string{" main.main", "  main.work", "   main.helper"}, names)
}

func TestFromProfileWithoutDuration(t *testing.T) {
	p := testProfile()
	p.DurationNanos = 0
	p.SampleType = []*profile.ValueType{
		{Type: "wall", Unit: "microseconds"},
		{Type: "alloc", Unit: "bytes"},
	}
	for _, s := range p.Sample {
		s.Value = []int64{s.Value[1] / 1000, 1}
	}

	stats, runTime, err := pprofimport.FromProfile(p)
	require.NoError(t, err)
	require.InDelta(t, 0.4, runTime, 1e-9)
	require.Equal(t, 1, stats[0].CallCount)
	require.InDelta(t, stats[0].TotalTime, stats[0].AvgTime, 1e-9)
}

func TestImportInvalid(t *testing.T) {
	_, _, err := pprofimport.Import(bytes.NewBufferString("not a profile"))
	require.Error(t, err)
}

func TestFromProfileCallsType(t *testing.T) {
	p := testProfile()
	p.SampleType[0] = &profile.ValueType{Type: "calls", Unit: "count"}

	stats, _, err := pprofimport.FromProfile(p)
	require.NoError(t, err)
	require.Equal(t, "main.main", stats[0].Name)
	require.Equal(t, 5, stats[0].CallCount)
	require.InDelta(t, 0.08, stats[0].AvgTime, 1e-9)
}

var fnHeavy = &profile.Function{ID: 4, Name: "main.heavy", SystemName: "main.heavy", Filename: "main.go", StartLine: 40}
var fnLight = &profile.Function{ID: 5, Name: "main.light", SystemName: "main.light", Filename: "main.go", StartLine: 50}

var locHeavy = &profile.Location{ID: 4, Line: []profile.Line{{Function: fnHeavy, Line: 41}}}
var locLight = &profile.Location{ID: 5, Line: []profile.Line{{Function: fnLight, Line: 51}}}

// sampledProfile mimics a Go CPU profile: a samples count next to the cpu
// time, 10ms per sample.
func sampledProfile(samples ...*profile.Sample) *profile.Profile {
	return &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		DurationNanos: 1e9,
		Period:        10e6,
		PeriodType:    &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Sample:        samples,
		Function:      []*profile.Function{fnMain, fnHeavy, fnLight},
		Location:      []*profile.Location{locMain, locHeavy, locLight},
	}
}

func sampled(n int64, locs ...*profile.Location) *profile.Sample {
	return &profile.Sample{Location: locs, Value: []int64{n, n * 10e6}}
}

func TestSampledProfileHighlights(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T, p *profile.Profile) map[string]report.AnnotatedLine {
		stats, runTime, err := pprofimport.FromProfile(p)
		require.NoError(t, err)
		lines, err := report.New(zerolog.Nop(), report.DefaultOptions()).Build(stats, runTime)
		require.NoError(t, err)

		byName := make(map[string]report.AnnotatedLine, len(lines))
		for _, line := range lines {
			byName[line.Name] = line
		}
		return byName
	}

	t.Run("OnlyHeavyIsSlowest", func(t *testing.T) {
		t.Parallel()

		lines := build(t, sampledProfile(
			sampled(90, locHeavy),
			sampled(1, locLight),
		))
		require.InDelta(t, 0.9, lines["main.heavy"].AvgTime, 1e-9)
		require.InDelta(t, 0.01, lines["main.light"].AvgTime, 1e-9)
		require.Equal(t, report.HighlightSlowestCall, lines["main.heavy"].Highlight)
		require.Equal(t, report.HighlightNone, lines["main.light"].Highlight)
	})

	t.Run("HotSubtreeShows", func(t *testing.T) {
		t.Parallel()

		lines := build(t, sampledProfile(
			sampled(50, locMain),
			sampled(5, locLight, locMain),
		))
		require.Equal(t, report.HighlightSlowestCall, lines["main.main"].Highlight)
		require.Equal(t, report.HighlightHotSubtree, lines["main.light"].Highlight)
	})
}
