package cmd

import (
	"fmt"

	"github.com/coder/serpent"

	"github.com/Emyrk/profreport/report/snapshot"
	"github.com/Emyrk/profreport/report/workload"
)

func (r *Root) demoCmd() *serpent.Command {
	var (
		flags           reportFlags
		nodes           int64
		channelsPerNode int64
		hops            int64
		seed            int64
		dump            string
	)
	cmd := &serpent.Command{
		Use:   "demo",
		Short: "Report on a synthetic payment network transfer run.",
		Options: serpent.OptionSet{
			{
				Name:        "nodes",
				Description: "Number of nodes in the simulated network.",
				Flag:        "nodes",
				Default:     "10",
				Value:       serpent.Int64Of(&nodes),
			},
			{
				Name:        "channels-per-node",
				Description: "Channels opened by every node.",
				Flag:        "channels-per-node",
				Default:     "2",
				Value:       serpent.Int64Of(&channelsPerNode),
			},
			{
				Name:        "hops",
				Description: "Length of the mediated transfer path.",
				Flag:        "hops",
				Default:     "2",
				Value:       serpent.Int64Of(&hops),
			},
			{
				Name:        "seed",
				Description: "Seed for the simulated timings.",
				Flag:        "seed",
				Default:     "1",
				Value:       serpent.Int64Of(&seed),
			},
			{
				Name:        "dump",
				Description: "Print the generated snapshot in this format instead of the report.",
				Flag:        "dump",
				Value:       serpent.EnumOf(&dump, snapshot.FormatJSON, snapshot.FormatYAML),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			logger := r.Logger(inv)

			snap, err := workload.Generate(workload.Options{
				Nodes:           int(nodes),
				ChannelsPerNode: int(channelsPerNode),
				Hops:            int(hops),
				Seed:            seed,
			})
			if err != nil {
				return fmt.Errorf("generate workload: %w", err)
			}
			logger.Debug().
				Int64("nodes", nodes).
				Int64("channels_per_node", channelsPerNode).
				Int("stats", len(snap.Stats)).
				Msg("generated workload")

			if dump != "" {
				return snapshot.Encode(inv.Stdout, snap, dump)
			}

			opts, err := flags.Options(inv)
			if err != nil {
				return err
			}
			return writeReport(inv, logger, opts, snap.Stats, snap.RunTime(), "")
		},
	}

	flags.Attach(cmd)
	return cmd
}
