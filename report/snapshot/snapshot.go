package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/pprofimport"
)

const (
	FormatAuto  = "auto"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatPprof = "pprof"
)

var Formats = []string{FormatAuto, FormatJSON, FormatYAML, FormatPprof}

// Snapshot is one completed profiler run: the flat stats plus the measured
// wall clock time in seconds.
type Snapshot struct {
	TotalRunTime float64          `json:"total_run_time" yaml:"total_run_time"`
	Stats        []report.RawStat `json:"stats" yaml:"stats"`
}

// RunTime returns the measured run time, falling back to the largest total
// time when the snapshot does not carry one.
func (s *Snapshot) RunTime() float64 {
	if s.TotalRunTime > 0 {
		return s.TotalRunTime
	}
	return report.RootTotal(s.Stats)
}

// Load reads a snapshot from disk. FormatAuto picks the decoder by file
// extension and defaults to pprof for unknown extensions.
func Load(path string, format string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if format == FormatAuto || format == "" {
		format = detect(path)
	}
	return Decode(bytes.NewReader(data), format)
}

func detect(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatPprof
	}
}

func Decode(r io.Reader, format string) (*Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatJSON:
		err := json.NewDecoder(r).Decode(&snap)
		if err != nil {
			return nil, fmt.Errorf("unmarshal json: %w", err)
		}
	case FormatYAML:
		err := yaml.NewDecoder(r).Decode(&snap)
		if err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case FormatPprof:
		stats, runTime, err := pprofimport.Import(r)
		if err != nil {
			return nil, fmt.Errorf("import pprof: %w", err)
		}
		snap.Stats = stats
		snap.TotalRunTime = runTime
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}

	for i := range snap.Stats {
		stat := &snap.Stats[i]
		// avg is optional in files, it is always total / calls.
		if stat.AvgTime == 0 && stat.CallCount > 0 {
			stat.AvgTime = stat.TotalTime / float64(stat.CallCount)
		}
	}
	return &snap, nil
}

// Encode writes the snapshot as JSON or YAML.
func Encode(w io.Writer, snap *Snapshot, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("cannot encode snapshot as %q", format)
	}
}
