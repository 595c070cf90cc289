// Package workload synthesizes profiler snapshots shaped like a payment
// channel network run: the network is bootstrapped, a path of two hops is
// searched and a mediated transfer is forwarded along it. The snapshots feed
// demos and tests that need realistic, recursive call data without running a
// real profiler.
package workload

import (
	"fmt"
	"math/rand"

	"github.com/Emyrk/profreport/report"
	"github.com/Emyrk/profreport/report/snapshot"
)

type Options struct {
	Nodes           int
	ChannelsPerNode int
	// Hops is the mediated transfer path length.
	Hops int
	Seed int64
}

func DefaultOptions() Options {
	return Options{
		Nodes:           10,
		ChannelsPerNode: 2,
		Hops:            2,
		Seed:            1,
	}
}

func (o Options) validate() error {
	if o.Nodes < 2 {
		return fmt.Errorf("need at least 2 nodes, got %d", o.Nodes)
	}
	if o.ChannelsPerNode < 1 {
		return fmt.Errorf("need at least 1 channel per node, got %d", o.ChannelsPerNode)
	}
	if o.Hops < 1 {
		return fmt.Errorf("need at least 1 hop, got %d", o.Hops)
	}
	return nil
}

// call is one invocation in the simulated run.
type call struct {
	key      report.Key
	self     float64
	children []*call
}

func (c *call) add(children ...*call) *call {
	c.children = append(c.children, children...)
	return c
}

func (c *call) total() float64 {
	t := c.self
	for _, child := range c.children {
		t += child.total()
	}
	return t
}

var (
	siteCreateNetwork = report.Key{Name: "create_network", Site: 41}
	siteApp           = report.Key{Name: "App.__init__", Site: 88}
	siteService       = report.Key{Name: "RaidenService.__init__", Site: 57}
	siteSetupChannel  = report.Key{Name: "setup_channel", Site: 120}
	siteChannel       = report.Key{Name: "NettingChannel.__init__", Site: 301}
	siteTransfer      = report.Key{Name: "RaidenAPI.transfer", Site: 212}
	siteGetPaths      = report.Key{Name: "ChannelGraph.get_paths_of_length", Site: 95}
	siteNeighbours    = report.Key{Name: "ChannelGraph.neighbours", Site: 70}
	siteMediated      = report.Key{Name: "MediatedTransferTask._run", Site: 154}
	siteForward       = report.Key{Name: "TransferManager.forward", Site: 233}
	siteSend          = report.Key{Name: "UDPTransport.send", Site: 39}
	siteSign          = report.Key{Name: "sign", Site: 18}
	siteSha3          = report.Key{Name: "sha3", Site: 7}
	siteWait          = report.Key{Name: "gevent.wait", Site: 602}
	siteGreenlet      = report.Key{Name: "greenlet_switch", Site: 0}
	siteHub           = report.Key{Name: "hub_switch", Site: 0}
)

type generator struct {
	rnd  *rand.Rand
	opts Options
}

// cost returns base seconds with up to 20% jitter.
func (g *generator) cost(base float64) float64 {
	return base * (0.9 + 0.2*g.rnd.Float64())
}

func (g *generator) invoke(key report.Key, base float64) *call {
	return &call{key: key, self: g.cost(base)}
}

func (g *generator) network() *call {
	root := g.invoke(siteCreateNetwork, 0.002)
	for i := 0; i < g.opts.Nodes; i++ {
		service := g.invoke(siteService, 0.004)
		for j := 0; j < g.opts.ChannelsPerNode; j++ {
			service.add(g.invoke(siteSetupChannel, 0.001).add(g.invoke(siteChannel, 0.0015)))
		}
		root.add(g.invoke(siteApp, 0.0005).add(service))
	}
	return root
}

func (g *generator) send() *call {
	return g.invoke(siteSend, 0.0008).add(
		g.invoke(siteSign, 0.0002).add(g.invoke(siteSha3, 0.0004)),
		g.invoke(siteGreenlet, 0.00001),
	)
}

// forward recurses once per remaining hop, like a mediator handing the
// transfer to the next node.
func (g *generator) forward(remaining int) *call {
	c := g.invoke(siteForward, 0.0006).add(g.send())
	if remaining > 1 {
		c.add(g.forward(remaining - 1))
	}
	return c
}

func (g *generator) transfer() *call {
	paths := g.invoke(siteGetPaths, 0.0003)
	for i := 0; i < g.opts.Nodes*g.opts.ChannelsPerNode; i++ {
		paths.add(g.invoke(siteNeighbours, 0.00005))
	}
	return g.invoke(siteTransfer, 0.0004).add(
		paths,
		g.invoke(siteMediated, 0.0002).add(g.forward(g.opts.Hops)),
	)
}

func (g *generator) wait() *call {
	wait := g.invoke(siteWait, 0.0001)
	for i := 0; i < g.opts.Hops; i++ {
		wait.add(g.invoke(siteHub, 0.01))
	}
	return wait
}

// Generate simulates a run and aggregates it into a snapshot the way a
// tracing profiler would.
func Generate(opts Options) (*snapshot.Snapshot, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	g := &generator{
		rnd:  rand.New(rand.NewSource(opts.Seed)),
		opts: opts,
	}
	roots := []*call{g.network(), g.transfer(), g.wait()}

	agg := newAggregator()
	runTime := 0.0
	for _, root := range roots {
		agg.visit(root)
		runTime += root.total()
	}
	return &snapshot.Snapshot{
		TotalRunTime: runTime,
		Stats:        agg.stats,
	}, nil
}
