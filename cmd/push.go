package cmd

import (
	"fmt"
	"time"

	"github.com/coder/serpent"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/pprofexport"
	"github.com/Emyrk/profreport/report/pyroscope"
	"github.com/Emyrk/profreport/report/snapshot"
)

func (r *Root) pushCmd() *serpent.Command {
	var (
		input     string
		format    string
		totalTime float64
		appName   string
		opts      pyroscope.Options
	)
	return &serpent.Command{
		Use:   "push",
		Short: "Push the reconstructed report of a snapshot to Pyroscope.",
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
				Name:        "server-address",
				Description: "Pyroscope server to push to.",
				Flag:        "server-address",
				Env:         "PYROSCOPE_SERVER_ADDRESS",
				Default:     "http://localhost:4040",
				Value:       serpent.StringOf(&opts.Address),
			},
			{
				Name:        "auth-token",
				Description: "Pyroscope auth token.",
				Flag:        "auth-token",
				Env:         "PYROSCOPE_AUTH_TOKEN",
				Value:       serpent.StringOf(&opts.AuthToken),
			},
			{
				Name:        "tenant-id",
				Description: "Tenant to push as.",
				Flag:        "tenant-id",
				Env:         "PYROSCOPE_TENANT_ID",
				Value:       serpent.StringOf(&opts.TenantID),
			},
			{
				Name:        "app-name",
				Description: "Application name of the pushed profile.",
				Flag:        "app-name",
				Default:     "profreport",
				Value:       serpent.StringOf(&appName),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			logger := r.Logger(inv)

			snap, err := snapshot.Load(input, format)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			runTime := snap.RunTime()
			if totalTime > 0 {
				runTime = totalTime
			}

			lines, err := report.New(logger, report.DefaultOptions()).Build(snap.Stats, runTime)
			if err != nil {
				return fmt.Errorf("build report: %w", err)
			}
			pb := pprofexport.New().Convert(lines, runTime)

			opts.Timeout = 20 * time.Second
			pusher, err := pyroscope.NewPusher(opts, logger.With().Str("service", "pyroscope").Logger())
			if err != nil {
				return fmt.Errorf("new pusher: %w", err)
			}
			err = pusher.Push(appName+".cpu", pb)
			if err != nil {
				pusher.Stop()
				return fmt.Errorf("push: %w", err)
			}
			pusher.Stop()
			logger.Info().Str("server", opts.Address).Int("lines", len(lines)).Msg("pushed report profile")
			return nil
		},
	}
}
