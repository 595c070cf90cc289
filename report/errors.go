package report

import "fmt"

// DuplicateKeyError is returned when two stats share a (name, site) pair.
// The snapshot is inconsistent and no report can be built from it.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate call site (name=%q, site=%d): (name, site) must be unique", e.Key.Name, e.Key.Site)
}

// MissingEntryError is returned when a child reference points at a call site
// that has no entry in the table.
type MissingEntryError struct {
	Key Key
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("missing call site (name=%q, site=%d): referenced as a child but not in the table", e.Key.Name, e.Key.Site)
}
