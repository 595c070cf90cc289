package workload

import "github.com/Emyrk/profreport/report"

// aggregator folds invocations into per call site stats. Total time of a
// recursive site is only counted at its outermost active invocation.
type aggregator struct {
	index  map[report.Key]int
	stats  []report.RawStat
	edges  map[[2]report.Key]bool
	active map[report.Key]int
}

func newAggregator() *aggregator {
	return &aggregator{
		index:  make(map[report.Key]int),
		edges:  make(map[[2]report.Key]bool),
		active: make(map[report.Key]int),
	}
}

func (a *aggregator) stat(key report.Key) *report.RawStat {
	if i, ok := a.index[key]; ok {
		return &a.stats[i]
	}
	a.index[key] = len(a.stats)
	a.stats = append(a.stats, report.RawStat{
		Name:      key.Name,
		Site:      key.Site,
		CallOrder: len(a.stats),
	})
	return &a.stats[len(a.stats)-1]
}

func (a *aggregator) visit(c *call) {
	st := a.stat(c.key)
	st.CallCount++
	st.SelfTime += c.self
	if a.active[c.key] == 0 {
		st.TotalTime += c.total()
	}
	st.AvgTime = st.TotalTime / float64(st.CallCount)

	a.active[c.key]++
	for _, child := range c.children {
		edge := [2]report.Key{c.key, child.key}
		if !a.edges[edge] {
			a.edges[edge] = true
			parent := a.stat(c.key)
			parent.Children = append(parent.Children, child.key)
		}
		a.visit(child)
	}
	a.active[c.key]--
}
