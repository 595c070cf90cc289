package report

// reconstructor walks the implied call tree of a StatTable. The expanded map
// bounds the walk: a call site is never expanded more times than it was
// invoked, which keeps recursive and shared call sites from looping or
// repeating. One reconstructor serves exactly one report.
type reconstructor struct {
	table    *StatTable
	expanded map[Key]int
	lines    []ProfileLine
}

// Reconstruct flattens the table into depth tagged lines, expanding every
// entry as a root in call order. Switch frames are only dropped as children;
// a switch entry that no expansion reached still shows up as a root line.
func Reconstruct(table *StatTable) ([]ProfileLine, error) {
	r := &reconstructor{
		table:    table,
		expanded: make(map[Key]int, table.Len()),
		lines:    make([]ProfileLine, 0, table.Len()),
	}

	for _, stat := range table.OrderedByCallOrder() {
		if err := r.expand(stat, 0); err != nil {
			return nil, err
		}
	}
	return r.lines, nil
}

func (r *reconstructor) expand(stat *RawStat, depth int) error {
	key := stat.Key()
	already := r.expanded[key]
	if already >= stat.CallCount {
		return nil
	}
	r.expanded[key] = already + stat.CallCount

	r.lines = append(r.lines, ProfileLine{
		Depth:     depth,
		Name:      stat.Name,
		CallCount: stat.CallCount,
		SelfTime:  stat.SelfTime,
		TotalTime: stat.TotalTime,
		AvgTime:   stat.AvgTime,
	})

	for _, child := range stat.Children {
		if child.IsSwitch() {
			continue
		}
		childStat, err := r.table.Lookup(child)
		if err != nil {
			return err
		}
		if err := r.expand(childStat, depth+1); err != nil {
			return err
		}
	}
	return nil
}
