// Package seqstore reads feature sequences out of binary
// containers.
//
// A container is a read-only hierarchical store of named
// numeric arrays.  Sequence data lives under the "inputs"
// group (and optionally "outputs"), one 2-D array per
// sequence, named by ascending integers starting at 0.
// A Store aggregates one or more containers behind a
// single contiguous sequence index.
package seqstore

import (
	"sort"
	"strconv"

	"github.com/unixpickle/anyvec"
)

// A Container is a read-only store of named numeric
// arrays, grouped under string group names.  The empty
// group name addresses arrays at the container root.
type Container interface {
	// HasGroup reports whether the group exists.
	HasGroup(name string) bool

	// HasEntry reports whether the named array exists in
	// the group.
	HasEntry(group, name string) bool

	// EntryNames returns the names of the arrays in a
	// group, in ascending numeric order.
	EntryNames(group string) []string

	// ReadRows reads a 2-D entry as one vector per row.
	ReadRows(group, name string) ([]anyvec.Vector, error)

	// ReadVector reads a 1-D entry.
	ReadVector(group, name string) (anyvec.Vector, error)

	// Close releases the container's resources.
	Close() error
}

// An OpenFunc opens the container at a filesystem path.
//
// Stores take an OpenFunc so that the container format
// itself stays pluggable; Open is the default.
type OpenFunc func(path string) (Container, error)

// sortEntryNames orders names by their integer value,
// falling back to lexical order for non-numeric names.
func sortEntryNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		a, errA := strconv.Atoi(names[i])
		b, errB := strconv.Atoi(names[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return names[i] < names[j]
	})
}
