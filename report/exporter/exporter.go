package exporter

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/reportcollector"
	"github.com/Emyrk/profreport/report/snapshot"
)

type Options struct {
	Listen          string          `yaml:"listen"`
	RefreshInterval time.Duration   `yaml:"refresh_interval"`
	SlowestRatio    float64         `yaml:"slowest_ratio"`
	HotRatio        float64         `yaml:"hot_ratio"`
	Reports         []TargetOptions `yaml:"reports"`
}

// TargetOptions configure one snapshot file to report on.
type TargetOptions struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	// TotalRunTime overrides the run time stored in the snapshot.
	TotalRunTime float64 `yaml:"total_run_time"`
	// ConstLabels must use the same label names on every report, prometheus
	// rejects differing label sets for one metric name.
	ConstLabels prometheus.Labels `yaml:"constant_labels"`
}

type rendered struct {
	lines   []report.AnnotatedLine
	runTime float64
}

type target struct {
	TargetOptions
	collector *reportcollector.Collector
	last      atomic.Pointer[rendered]
}

// Exporter rebuilds the configured reports on an interval and serves them as
// prometheus metrics and plain text.
type Exporter struct {
	Listen  string
	targets []*target

	gen      *report.Generator
	logger   zerolog.Logger
	interval time.Duration
	reg      *prometheus.Registry
}

func New(opts Options, logger zerolog.Logger) (*Exporter, error) {
	if len(opts.Reports) == 0 {
		return nil, fmt.Errorf("no reports configured")
	}
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = time.Minute
	}
	if opts.Listen == "" {
		opts.Listen = ":2112"
	}

	reg := prometheus.NewRegistry()
	seen := make(map[string]bool)
	tgts := make([]*target, 0, len(opts.Reports))
	for _, t := range opts.Reports {
		if t.Name == "" || t.Path == "" {
			return nil, fmt.Errorf("report needs a name and a path, got name=%q path=%q", t.Name, t.Path)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("report %q configured twice", t.Name)
		}
		seen[t.Name] = true

		constantLabels := prometheus.Labels{
			"report": t.Name,
		}
		for k, v := range t.ConstLabels {
			constantLabels[k] = v
		}

		tgt := &target{
			TargetOptions: t,
			collector: reportcollector.New(logger.
				With().
				Str("report", t.Name).
				Logger(), "profreport", constantLabels),
		}
		tgts = append(tgts, tgt)
		err := reg.Register(tgt.collector)
		if err != nil {
			return nil, fmt.Errorf("register report %q: %w", t.Name, err)
		}
	}

	defaults := report.DefaultOptions()
	if opts.SlowestRatio > 0 {
		defaults.SlowestRatio = opts.SlowestRatio
	}
	if opts.HotRatio > 0 {
		defaults.HotRatio = opts.HotRatio
	}

	return &Exporter{
		Listen:   opts.Listen,
		targets:  tgts,
		gen:      report.New(logger, defaults),
		logger:   logger,
		interval: opts.RefreshInterval,
		reg:      reg,
	}, nil
}

// Watch refreshes every report until the context is done.
func (e *Exporter) Watch(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		e.Refresh(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Refresh rebuilds every report once and returns how many failed. A failed
// report keeps exposing its previous result.
func (e *Exporter) Refresh(ctx context.Context) int {
	failed := 0
	for _, tgt := range e.targets {
		if ctx.Err() != nil {
			return failed
		}
		logger := e.logger.With().Str("report", tgt.Name).Str("path", tgt.Path).Logger()
		lines, runTime, err := e.build(tgt)
		if err != nil {
			failed++
			logger.Error().Err(err).Msg("failed to build report")
			continue
		}

		tgt.collector.SetReport(lines, runTime)
		tgt.last.Store(&rendered{lines: lines, runTime: runTime})
		logger.Info().
			Int("lines", len(lines)).
			Float64("total_run_time", runTime).
			Msg("report refreshed")
	}
	return failed
}

func (e *Exporter) build(tgt *target) ([]report.AnnotatedLine, float64, error) {
	snap, err := snapshot.Load(tgt.Path, tgt.Format)
	if err != nil {
		return nil, 0, fmt.Errorf("load snapshot: %w", err)
	}
	runTime := snap.RunTime()
	if tgt.TotalRunTime > 0 {
		runTime = tgt.TotalRunTime
	}

	lines, err := e.gen.Build(snap.Stats, runTime)
	if err != nil {
		return nil, 0, err
	}
	return lines, runTime, nil
}

// Handler serves /metrics and the latest text report of each source at
// /report/{name}.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{
		Registry: e.reg,
	}))
	mux.HandleFunc("GET /report/{name}", e.serveReport)
	return mux
}

func (e *Exporter) serveReport(rw http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	for _, tgt := range e.targets {
		if tgt.Name != name {
			continue
		}
		last := tgt.last.Load()
		if last == nil {
			http.Error(rw, fmt.Sprintf("report %q not built yet", name), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
		renderer := &report.Renderer{Styler: report.PlainStyler{}}
		err := renderer.Render(rw, last.lines, last.runTime)
		if err != nil {
			e.logger.Error().Err(err).Str("report", name).Msg("write report")
		}
		return
	}
	http.NotFound(rw, r)
}
