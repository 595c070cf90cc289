package report

import (
	"fmt"
	"strings"
)

// switchSuffix marks the context switch pseudo frames a profiler injects into
// child lists. They are bookkeeping, not calls.
const switchSuffix = "switch"

// Key identifies a call site. Name alone is not unique: closures and lambdas
// share a name, so the site (usually the source line) disambiguates.
type Key struct {
	Name string `json:"name" yaml:"name"`
	Site int    `json:"site" yaml:"site"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Name, k.Site)
}

// IsSwitch reports whether the key names a context switch pseudo frame.
func (k Key) IsSwitch() bool {
	return strings.HasSuffix(k.Name, switchSuffix)
}

// RawStat is the flat per call site record produced by a profiler run. Times
// are in seconds.
type RawStat struct {
	Name      string  `json:"name" yaml:"name"`
	Site      int     `json:"site" yaml:"site"`
	CallCount int     `json:"calls" yaml:"calls"`
	SelfTime  float64 `json:"self" yaml:"self"`
	TotalTime float64 `json:"total" yaml:"total"`
	AvgTime   float64 `json:"avg" yaml:"avg"`
	Children  []Key   `json:"children,omitempty" yaml:"children,omitempty"`
	// CallOrder approximates the order in which call sites were first entered.
	CallOrder int `json:"order" yaml:"order"`
}

func (s RawStat) Key() Key {
	return Key{Name: s.Name, Site: s.Site}
}

// ProfileLine is one row of the flattened call tree.
type ProfileLine struct {
	Depth     int
	Name      string
	CallCount int
	SelfTime  float64
	TotalTime float64
	AvgTime   float64
}
