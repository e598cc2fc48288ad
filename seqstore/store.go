package seqstore

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// BundleSuffix marks manifest files listing one container
// path per line instead of a single container.
const BundleSuffix = ".bundle"

// An indexEntry maps a global sequence index to an entry
// of one of the opened containers.
type indexEntry struct {
	container int
	name      string
}

// A Store provides indexed access to the sequences of one
// or more containers.
//
// The global index is built once when the store is opened
// by concatenating, in container order, the entries of
// each container's "inputs" group.  It does not change
// for the lifetime of the store.
type Store struct {
	// Logger, if non-nil, receives best-effort teardown
	// diagnostics.
	Logger *log.Logger

	paths      []string
	containers []Container
	index      []indexEntry
}

// NewStore opens the container at path, or every container
// listed in it if path is a bundle manifest (one absolute
// container path per line, blank lines skipped).
//
// A nil open uses the default container format.
// NewStore fails if any listed path does not exist.
func NewStore(path string, open OpenFunc) (store *Store, err error) {
	defer essentials.AddCtxTo("open sequence store", &err)
	if open == nil {
		open = Open
	}

	paths := []string{path}
	if strings.HasSuffix(path, BundleSuffix) {
		paths, err = readBundle(path)
		if err != nil {
			return nil, err
		}
	}

	store = &Store{paths: paths}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			store.Close()
			return nil, err
		}
		container, err := open(p)
		if err != nil {
			store.Close()
			return nil, err
		}
		store.containers = append(store.containers, container)
	}

	for i, c := range store.containers {
		for _, name := range c.EntryNames("inputs") {
			store.index = append(store.index, indexEntry{container: i, name: name})
		}
	}
	return store, nil
}

// readBundle reads a bundle manifest.
func readBundle(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// SeqCount returns the total number of sequences across
// all containers.
func (s *Store) SeqCount() int {
	return len(s.index)
}

// HasTargets reports whether the first container carries
// an "outputs" group, i.e. whether the store serves
// labeled data.
func (s *Store) HasTargets() bool {
	return len(s.containers) > 0 && s.containers[0].HasGroup("outputs")
}

// ReadSeq reads the sequence at a global index.
//
// It returns the input frames and, if the sequence's
// container has an "outputs" group, the target frames of
// the same name.  Indices past the end are an error;
// datasets are expected to range-check first.
func (s *Store) ReadSeq(idx int) (in, target []anyvec.Vector, err error) {
	defer essentials.AddCtxTo(fmt.Sprintf("read sequence %d", idx), &err)
	if idx < 0 || idx >= len(s.index) {
		return nil, nil, fmt.Errorf("index out of range (have %d sequences)", len(s.index))
	}
	entry := s.index[idx]
	container := s.containers[entry.container]
	in, err = container.ReadRows("inputs", entry.name)
	if err != nil {
		return nil, nil, err
	}
	if container.HasGroup("outputs") {
		target, err = container.ReadRows("outputs", entry.name)
		if err != nil {
			return nil, nil, err
		}
	}
	return in, target, nil
}

// Close releases every container handle.
//
// Close failures are logged and swallowed: the store is
// logically released either way.
func (s *Store) Close() {
	for i, c := range s.containers {
		if err := c.Close(); err != nil && s.Logger != nil {
			s.Logger.Printf("close container %s: %s", s.paths[i], err)
		}
	}
	s.containers = nil
	s.index = nil
}
