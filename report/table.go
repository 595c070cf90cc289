package report

import (
	"sort"
)

// StatTable indexes a snapshot of raw stats by call site key. Entries are
// stored once and referenced by key during reconstruction, never copied.
type StatTable struct {
	stats []RawStat
	index map[Key]int
}

// NewStatTable indexes the stats, failing on the first duplicate key.
func NewStatTable(stats []RawStat) (*StatTable, error) {
	t := &StatTable{
		stats: stats,
		index: make(map[Key]int, len(stats)),
	}
	for i, stat := range stats {
		key := stat.Key()
		if _, found := t.index[key]; found {
			return nil, &DuplicateKeyError{Key: key}
		}
		t.index[key] = i
	}
	return t, nil
}

func (t *StatTable) Len() int {
	return len(t.stats)
}

// Lookup returns the entry for the key.
func (t *StatTable) Lookup(key Key) (*RawStat, error) {
	i, found := t.index[key]
	if !found {
		return nil, &MissingEntryError{Key: key}
	}
	return &t.stats[i], nil
}

// OrderedByCallOrder returns every entry sorted ascending by CallOrder. Ties
// keep their input order.
func (t *StatTable) OrderedByCallOrder() []*RawStat {
	ordered := make([]*RawStat, 0, len(t.stats))
	for i := range t.stats {
		ordered = append(ordered, &t.stats[i])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CallOrder < ordered[j].CallOrder
	})
	return ordered
}
