package cmd

import (
	"bytes"
	"fmt"
	"runtime/pprof"

	"github.com/coder/serpent"

	"github.com/Emyrk/profreport/cmd/workdemo"
	"github.com/Emyrk/profreport/report/pprofimport"
)

func (r *Root) pprofDemo() *serpent.Command {
	var (
		flags  reportFlags
		amount int64
		raw    bool
	)
	cmd := &serpent.Command{
		Use:   "pprofdemo",
		Short: "CPU profile a known workload and report on the Go profile.",
		Options: serpent.OptionSet{
			{
				Name:        "amount",
				Description: "Loop iterations per stage of the workload.",
				Flag:        "amount",
				Default:     "100000000",
				Value:       serpent.Int64Of(&amount),
			},
			{
				Name:        "raw",
				Description: "Write the raw pprof profile to stdout instead of the report.",
				Flag:        "raw",
				Value:       serpent.BoolOf(&raw),
			},
		},
		Handler: func(i *serpent.Invocation) error {
			logger := r.Logger(i)

			var buf bytes.Buffer
			err := pprof.StartCPUProfile(&buf)
			if err != nil {
				return fmt.Errorf("start cpu profile: %w", err)
			}

			// Do some work
			result := workdemo.Root(int(amount))

			// Stop profile
			pprof.StopCPUProfile()
			logger.Debug().Int("result", result).Int("profile_bytes", buf.Len()).Msg("workload profiled")

			if raw {
				_, err = buf.WriteTo(i.Stdout)
				return err
			}

			stats, runTime, err := pprofimport.Import(&buf)
			if err != nil {
				return fmt.Errorf("import cpu profile: %w", err)
			}

			opts, err := flags.Options(i)
			if err != nil {
				return err
			}
			return writeReport(i, logger, opts, stats, runTime, "")
		},
	}

	flags.Attach(cmd)
	return cmd
}
