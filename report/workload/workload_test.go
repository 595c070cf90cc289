package workload_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/workload"
)

func TestGenerate(t *testing.T) {
	snap, err := workload.Generate(workload.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, snap.Stats, 16)

	calls := make(map[string]int)
	for _, st := range snap.Stats {
		calls[st.Name] = st.CallCount
		require.InDelta(t, st.TotalTime/float64(st.CallCount), st.AvgTime, 1e-12, st.Name)
		require.LessOrEqual(t, st.SelfTime, st.TotalTime+1e-12, st.Name)
	}
	require.Equal(t, 10, calls["App.__init__"])
	require.Equal(t, 20, calls["setup_channel"])
	require.Equal(t, 20, calls["ChannelGraph.neighbours"])
	require.Equal(t, 2, calls["TransferManager.forward"])
	require.Equal(t, 2, calls["greenlet_switch"])

	var roots float64
	for _, st := range snap.Stats {
		switch st.Name {
		case "create_network", "RaidenAPI.transfer", "gevent.wait":
			roots += st.TotalTime
		}
	}
	require.InDelta(t, snap.TotalRunTime, roots, 1e-9)
}

func TestGenerateDeterministic(t *testing.T) {
	opts := workload.DefaultOptions()
	opts.Nodes = 4
	opts.Hops = 3

	a, err := workload.Generate(opts)
	require.NoError(t, err)
	b, err := workload.Generate(opts)
	require.NoError(t, err)
	require.Equal(t, a, b)

	opts.Seed++
	c, err := workload.Generate(opts)
	require.NoError(t, err)
	require.NotEqual(t, a.TotalRunTime, c.TotalRunTime)
}

func TestGenerateReport(t *testing.T) {
	opts := workload.DefaultOptions()
	opts.Hops = 4
	snap, err := workload.Generate(opts)
	require.NoError(t, err)

	gen := report.New(zerolog.Nop(), report.DefaultOptions())
	lines, err := gen.Build(snap.Stats, snap.RunTime())
	require.NoError(t, err)

	rendered := make(map[string]int)
	for _, line := range lines {
		rendered[line.Name]++
		if strings.HasSuffix(line.Name, "switch") {
			require.Zero(t, line.Depth, "switch frames only show up as roots")
		}
	}
	// The recursive forward chain collapses into a single row.
	require.Equal(t, 1, rendered["TransferManager.forward"])
	require.Equal(t, 1, rendered["UDPTransport.send"])
	require.Equal(t, 0, lines[0].Depth)
	require.Equal(t, "create_network", lines[0].Name)

	var buf bytes.Buffer
	require.NoError(t, gen.Generate(&buf, snap.Stats, snap.RunTime()))
	require.Contains(t, buf.String(), "Total time: ")
}

func TestGenerateValidate(t *testing.T) {
	for _, opts := range []workload.Options{
		{Nodes: 1, ChannelsPerNode: 2, Hops: 2},
		{Nodes: 3, ChannelsPerNode: 0, Hops: 2},
		{Nodes: 3, ChannelsPerNode: 1, Hops: 0},
	} {
		_, err := workload.Generate(opts)
		require.Error(t, err)
	}
}
