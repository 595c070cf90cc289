package cmd

import (
	"fmt"
	"os"

	"github.com/coder/serpent"
	"github.com/rs/zerolog"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/pprofexport"
	"github.com/Emyrk/profreport/report/snapshot"
)

func (r *Root) renderCmd() *serpent.Command {
	var (
		flags     reportFlags
		input     string
		format    string
		totalTime float64
		pprofOut  string
	)
	cmd := &serpent.Command{
		Use:   "render",
		Short: "Render the call tree report of a profiler snapshot.",
		Options: serpent.OptionSet{
			{
				Name:          "input",
				Description:   "Snapshot to report on (json, yaml or pprof).",
				Required:      true,
				Flag:          "input",
				FlagShorthand: "i",
				Value:         serpent.StringOf(&input),
			},
			{
				Name:        "format",
				Description: "Snapshot format, auto picks by file extension.",
				Flag:        "format",
				Default:     snapshot.FormatAuto,
				Value:       serpent.EnumOf(&format, snapshot.Formats...),
			},
			{
				Name:        "total-time",
				Description: "Wall clock seconds of the profiled run. 0 uses the time stored in the snapshot.",
				Flag:        "total-time",
				Default:     "0",
				Value:       serpent.Float64Of(&totalTime),
			},
			{
				Name:        "pprof-out",
				Description: "Also write the reconstructed report as a pprof profile to this path.",
				Flag:        "pprof-out",
				Value:       serpent.StringOf(&pprofOut),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			logger := r.Logger(inv)

			snap, err := snapshot.Load(input, format)
			if err != nil {
				logger.Error().Err(err).Str("input", input).Msg("load snapshot")
				return fmt.Errorf("load snapshot: %w", err)
			}
			runTime := snap.RunTime()
			if totalTime > 0 {
				runTime = totalTime
			}

			opts, err := flags.Options(inv)
			if err != nil {
				return err
			}
			return writeReport(inv, logger, opts, snap.Stats, runTime, pprofOut)
		},
	}

	flags.Attach(cmd)
	return cmd
}

// writeReport builds the report and prints it to stdout. With pprofOut set
// the annotated lines are also saved as a pprof profile.
func writeReport(inv *serpent.Invocation, logger zerolog.Logger, opts report.Options, stats []report.RawStat, runTime float64, pprofOut string) error {
	gen := report.New(logger, opts)
	lines, err := gen.Build(stats, runTime)
	if err != nil {
		logger.Error().Err(err).Msg("build report")
		return fmt.Errorf("build report: %w", err)
	}

	if pprofOut != "" {
		converter := pprofexport.New()
		converter.Convert(lines, runTime)
		data, err := converter.Encode()
		if err != nil {
			return fmt.Errorf("encode pprof: %w", err)
		}
		err = os.WriteFile(pprofOut, data, 0o644)
		if err != nil {
			return fmt.Errorf("write pprof: %w", err)
		}
		logger.Info().Str("path", pprofOut).Int("samples", len(lines)).Msg("wrote pprof profile")
	}

	return gen.Render(inv.Stdout, lines, runTime)
}
