package reportcollector

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Emyrk/profreport/report"
)

var _ prometheus.Collector = (*Collector)(nil)

var lineLabels = []string{"line", "function", "depth", "highlight"}

type built struct {
	lines   []report.AnnotatedLine
	runTime float64
}

// Collector exposes the latest report of one source as gauges, one series
// per report line.
type Collector struct {
	logger      zerolog.Logger
	namespace   string
	constLabels prometheus.Labels

	lastUpdated prometheus.Gauge
	total       *prometheus.Desc
	self        *prometheus.Desc
	single      *prometheus.Desc
	calls       *prometheus.Desc
	run         *prometheus.Desc

	report atomic.Pointer[built]
}

// New returns a Collector with no report yet. Metric names are prefixed with
// namespace and carry labels as constant labels. Nothing is exported until
// SetReport is called.
func New(logger zerolog.Logger, namespace string, labels prometheus.Labels) *Collector {
	desc := func(name, help string, variable []string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "report", name), help, variable, labels)
	}
	return &Collector{
		logger:      logger,
		namespace:   namespace,
		constLabels: labels,
		lastUpdated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "report",
			Name:        "last_updated_unix_s",
			Help:        "Timestamp in unix seconds of the last report update.",
			ConstLabels: labels,
		}),
		total:  desc("line_total_seconds", "Time spent in the call site including subcalls.", lineLabels),
		self:   desc("line_self_seconds", "Time spent in the call site itself.", lineLabels),
		single: desc("line_single_seconds", "Average time of a single call.", lineLabels),
		calls:  desc("line_calls", "Number of calls of the call site.", lineLabels),
		run:    desc("run_seconds", "Wall clock time of the profiled run.", nil),
	}
}

// Describe sends every descriptor up front, the series themselves only exist
// once a report was set.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.lastUpdated.Desc()
	descs <- c.total
	descs <- c.self
	descs <- c.single
	descs <- c.calls
	descs <- c.run
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	b := c.report.Load()
	if b == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.run, prometheus.GaugeValue, b.runTime)
	for i, line := range b.lines {
		labelValues := []string{
			strconv.Itoa(i),
			line.Name,
			strconv.Itoa(line.Depth),
			line.Highlight.String(),
		}
		for _, m := range []struct {
			desc  *prometheus.Desc
			value float64
		}{
			{c.total, line.TotalTime},
			{c.self, line.SelfTime},
			{c.single, line.AvgTime},
			{c.calls, float64(line.CallCount)},
		} {
			pm, err := prometheus.NewConstMetric(m.desc, prometheus.GaugeValue, m.value, labelValues...)
			if err != nil {
				c.logger.Warn().
					Str("function", line.Name).
					Strs("labels", labelValues).
					Err(err).
					Msg("failed to create metric")
				continue
			}
			ch <- pm
		}
	}

	ch <- c.lastUpdated
}

// SetReport replaces the exposed report.
func (c *Collector) SetReport(lines []report.AnnotatedLine, totalRunTime float64) {
	c.lastUpdated.Set(float64(time.Now().Unix()))
	c.report.Store(&built{
		lines:   lines,
		runTime: totalRunTime,
	})
}
