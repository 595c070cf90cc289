// Package pprofimport derives a flat call site snapshot from a pprof profile,
// so Go CPU and wall clock profiles can be reported on like any other run.
package pprofimport

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"

	"github.com/Emyrk/profreport/report"
)

var secondsPerUnit = map[string]float64{
	"nanoseconds":  1e-9,
	"microseconds": 1e-6,
	"milliseconds": 1e-3,
	"seconds":      1,
}

// callsType is the sample type holding real call counts. Sampled profiles
// only count samples, which say nothing about how often a function ran.
const callsType = "calls"

// unitSeconds converts sample values into seconds. Values of non time units
// are reported as is.
func unitSeconds(unit string) float64 {
	if scale, ok := secondsPerUnit[unit]; ok {
		return scale
	}
	return 1
}

// Import parses a pprof profile and returns its stats and the run time in
// seconds.
func Import(r io.Reader) ([]report.RawStat, float64, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parse profile: %w", err)
	}
	return FromProfile(p)
}

type builder struct {
	index map[report.Key]int
	stats []report.RawStat
	edges map[[2]report.Key]bool
}

func (b *builder) stat(key report.Key) *report.RawStat {
	if i, found := b.index[key]; found {
		return &b.stats[i]
	}
	b.index[key] = len(b.stats)
	b.stats = append(b.stats, report.RawStat{
		Name:      key.Name,
		Site:      key.Site,
		CallOrder: len(b.stats),
	})
	return &b.stats[len(b.stats)-1]
}

func (b *builder) edge(parent, child report.Key) {
	e := [2]report.Key{parent, child}
	if b.edges[e] {
		return
	}
	b.edges[e] = true
	p := b.stat(parent)
	p.Children = append(p.Children, child)
}

// FromProfile aggregates the samples of p per function. A function's total
// time is the value of every sample it appears in and its self time the value
// of samples where it is the leaf. Call counts come from a calls sample type;
// without one every function counts as called once, so its single call time
// equals its total time.
func FromProfile(p *profile.Profile) ([]report.RawStat, float64, error) {
	valueIdx, countIdx, err := sampleIndexes(p)
	if err != nil {
		return nil, 0, err
	}
	scale := unitSeconds(p.SampleType[valueIdx].Unit)

	b := &builder{
		index: make(map[report.Key]int),
		edges: make(map[[2]report.Key]bool),
	}
	sum := 0.0
	for _, sample := range p.Sample {
		value := float64(sample.Value[valueIdx]) * scale
		calls := 0
		if countIdx >= 0 {
			calls = int(sample.Value[countIdx])
		}
		sum += value

		stack := frames(sample)
		if len(stack) == 0 {
			continue
		}

		seen := make(map[report.Key]bool, len(stack))
		for i, key := range stack {
			if i > 0 {
				b.edge(stack[i-1], key)
			}
			st := b.stat(key)
			// Recursive frames count once per sample.
			if seen[key] {
				continue
			}
			seen[key] = true
			st.TotalTime += value
			st.CallCount += calls
		}
		b.stat(stack[len(stack)-1]).SelfTime += value
	}

	for i := range b.stats {
		st := &b.stats[i]
		if st.CallCount < 1 {
			st.CallCount = 1
		}
		st.AvgTime = st.TotalTime / float64(st.CallCount)
	}

	runTime := sum
	if p.DurationNanos > 0 {
		runTime = float64(p.DurationNanos) / 1e9
	}
	return b.stats, runTime, nil
}

// frames returns the sample's call stack from the root to the leaf. Inlined
// frames of a location are expanded, Line[0] being the innermost.
func frames(sample *profile.Sample) []report.Key {
	stack := make([]report.Key, 0, len(sample.Location))
	for i := len(sample.Location) - 1; i >= 0; i-- {
		loc := sample.Location[i]
		for j := len(loc.Line) - 1; j >= 0; j-- {
			fn := loc.Line[j].Function
			if fn == nil {
				continue
			}
			stack = append(stack, report.Key{Name: fn.Name, Site: int(fn.StartLine)})
		}
		if len(loc.Line) == 0 {
			stack = append(stack, report.Key{Name: fmt.Sprintf("0x%x", loc.Address)})
		}
	}
	return stack
}

func sampleIndexes(p *profile.Profile) (int, int, error) {
	if len(p.SampleType) == 0 {
		return 0, 0, fmt.Errorf("profile has no sample types")
	}
	valueIdx, countIdx := -1, -1
	for i, st := range p.SampleType {
		if countIdx < 0 && st.Unit == "count" && st.Type == callsType {
			countIdx = i
			continue
		}
		if _, ok := secondsPerUnit[st.Unit]; ok && valueIdx < 0 {
			valueIdx = i
		}
	}
	if valueIdx >= 0 {
		return valueIdx, countIdx, nil
	}

	valueIdx = len(p.SampleType) - 1
	for i, st := range p.SampleType {
		if p.DefaultSampleType != "" && st.Type == p.DefaultSampleType {
			valueIdx = i
		}
	}
	return valueIdx, countIdx, nil
}
