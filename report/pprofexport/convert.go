package pprofexport

import (
	"bytes"
	"time"

	"github.com/google/pprof/profile"

	"github.com/Emyrk/profreport/report"
)

// Converter turns a reconstructed report back into a pprof profile so it can
// be explored with pprof or pushed to a flame graph backend. Every line
// becomes one sample whose stack is the line and its ancestors.
type Converter struct {
	fid       uint64
	functions map[string]*profile.Function
	locations map[string]*profile.Location

	protobuf *profile.Profile
}

func New() *Converter {
	return &Converter{
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
		protobuf: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "cpu", Unit: "nanoseconds"},
				{Type: "calls", Unit: "count"},
			},
			DefaultSampleType: "cpu",
			Sample:            []*profile.Sample{},
			Mapping:           []*profile.Mapping{},
			Location:          []*profile.Location{},
			Function:          []*profile.Function{},
			Comments:          []string{},
			TimeNanos:         time.Now().UnixNano(),
		},
	}
}

// Convert adds the lines to the profile. totalRunTime becomes the profile
// duration.
func (c *Converter) Convert(lines []report.AnnotatedLine, totalRunTime float64) *profile.Profile {
	c.protobuf.DurationNanos = seconds(totalRunTime)

	// stack[d] is the location of the most recent line at depth d.
	stack := make([]*profile.Location, 0)
	for _, line := range lines {
		depth := line.Depth
		if depth > len(stack) {
			depth = len(stack)
		}
		loc := c.location(line.Name)
		stack = append(stack[:depth], loc)

		sample := &profile.Sample{
			// location[0] is the leaf.
			Location: reversed(stack),
			Value:    []int64{seconds(line.SelfTime), int64(line.CallCount)},
		}
		if line.Highlight != report.HighlightNone {
			sample.Label = map[string][]string{
				"highlight": {line.Highlight.String()},
			}
		}
		c.protobuf.Sample = append(c.protobuf.Sample, sample)
	}
	return c.protobuf
}

func (c *Converter) Encode() ([]byte, error) {
	var buf bytes.Buffer
	err := c.protobuf.Write(&buf)
	return buf.Bytes(), err
}

func (c *Converter) location(name string) *profile.Location {
	if loc, found := c.locations[name]; found {
		return loc
	}

	c.fid++
	fn := &profile.Function{
		ID:         c.fid,
		Name:       name,
		SystemName: name,
	}
	c.functions[name] = fn
	c.protobuf.Function = append(c.protobuf.Function, fn)

	loc := &profile.Location{
		ID: c.fid,
		Line: []profile.Line{
			{Function: fn},
		},
	}
	c.locations[name] = loc
	c.protobuf.Location = append(c.protobuf.Location, loc)
	return loc
}

func seconds(s float64) int64 {
	return int64(s * 1e9)
}

func reversed[T any](s []T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
