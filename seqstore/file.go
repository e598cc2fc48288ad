package seqstore

import (
	"fmt"
	"os"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var f fileEntry
	serializer.RegisterTypedDeserializer(f.SerializerType(), deserializeFileEntry)
}

// A fileEntry is one named array in a container file.
// Rows is 0 for 1-D entries and the row count otherwise.
type fileEntry struct {
	Group string
	Name  string
	Rows  int
	Data  anyvec.Vector
}

func deserializeFileEntry(d []byte) (*fileEntry, error) {
	var group, name serializer.Bytes
	var rows serializer.Int
	var vec *anyvecsave.S
	if err := serializer.DeserializeAny(d, &group, &name, &rows, &vec); err != nil {
		return nil, essentials.AddCtx("deserialize container entry", err)
	}
	return &fileEntry{
		Group: string(group),
		Name:  string(name),
		Rows:  int(rows),
		Data:  vec.Vector,
	}, nil
}

// SerializerType returns the unique ID used to serialize
// a fileEntry with the serializer package.
func (f *fileEntry) SerializerType() string {
	return "github.com/tran-khoa/returnn/seqstore.fileEntry"
}

// Serialize serializes the entry.
func (f *fileEntry) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Bytes(f.Group),
		serializer.Bytes(f.Name),
		serializer.Int(f.Rows),
		&anyvecsave.S{Vector: f.Data},
	)
}

// A FileContainer is a Container backed by a single
// serialized container file, fully loaded into memory.
type FileContainer struct {
	groups map[string]map[string]*fileEntry
}

// Open reads the container file at path.
//
// Open is the default OpenFunc for stores.
func Open(path string) (Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("open container", err)
	}
	slice, err := serializer.DeserializeSlice(data)
	if err != nil {
		return nil, essentials.AddCtx("open container "+path, err)
	}
	c := &FileContainer{groups: map[string]map[string]*fileEntry{}}
	for _, obj := range slice {
		entry, ok := obj.(*fileEntry)
		if !ok {
			return nil, fmt.Errorf("open container %s: not a container entry: %T", path, obj)
		}
		if c.groups[entry.Group] == nil {
			c.groups[entry.Group] = map[string]*fileEntry{}
		}
		c.groups[entry.Group][entry.Name] = entry
	}
	return c, nil
}

// HasGroup reports whether the group exists.
func (f *FileContainer) HasGroup(name string) bool {
	return len(f.groups[name]) > 0
}

// HasEntry reports whether the named array exists in the
// group.
func (f *FileContainer) HasEntry(group, name string) bool {
	_, ok := f.groups[group][name]
	return ok
}

// EntryNames returns the names of the arrays in a group,
// in ascending numeric order.
func (f *FileContainer) EntryNames(group string) []string {
	var names []string
	for name := range f.groups[group] {
		names = append(names, name)
	}
	sortEntryNames(names)
	return names
}

// ReadRows reads a 2-D entry as one vector per row.
func (f *FileContainer) ReadRows(group, name string) ([]anyvec.Vector, error) {
	entry, ok := f.groups[group][name]
	if !ok {
		return nil, fmt.Errorf("read entry: no entry %q in group %q", name, group)
	}
	if entry.Rows < 1 {
		return nil, fmt.Errorf("read entry: entry %q in group %q is not 2-D", name, group)
	}
	cols := entry.Data.Len() / entry.Rows
	rows := make([]anyvec.Vector, entry.Rows)
	for i := range rows {
		rows[i] = entry.Data.Slice(i*cols, (i+1)*cols)
	}
	return rows, nil
}

// ReadVector reads a 1-D entry.
func (f *FileContainer) ReadVector(group, name string) (anyvec.Vector, error) {
	entry, ok := f.groups[group][name]
	if !ok {
		return nil, fmt.Errorf("read entry: no entry %q in group %q", name, group)
	}
	if entry.Rows != 0 {
		return nil, fmt.Errorf("read entry: entry %q in group %q is not 1-D", name, group)
	}
	return entry.Data.Copy(), nil
}

// Close releases the container.
func (f *FileContainer) Close() error {
	f.groups = nil
	return nil
}

// A Builder accumulates named arrays and writes them out
// as a container file readable by Open.
type Builder struct {
	entries []serializer.Serializer
}

// AddRows adds a 2-D entry with one vector per row.
// All rows must have the same length and there must be at
// least one row.
func (b *Builder) AddRows(group, name string, rows []anyvec.Vector) error {
	if len(rows) == 0 {
		return fmt.Errorf("add entry %q: no rows", name)
	}
	for _, r := range rows {
		if r.Len() != rows[0].Len() {
			return fmt.Errorf("add entry %q: mismatching row lengths", name)
		}
	}
	b.entries = append(b.entries, &fileEntry{
		Group: group,
		Name:  name,
		Rows:  len(rows),
		Data:  rows[0].Creator().Concat(rows...),
	})
	return nil
}

// AddVector adds a 1-D entry.
func (b *Builder) AddVector(group, name string, vec anyvec.Vector) {
	b.entries = append(b.entries, &fileEntry{
		Group: group,
		Name:  name,
		Data:  vec.Copy(),
	})
}

// WriteFile serializes the accumulated entries to path.
func (b *Builder) WriteFile(path string) error {
	data, err := serializer.SerializeSlice(b.entries)
	if err != nil {
		return essentials.AddCtx("write container", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return essentials.AddCtx("write container", err)
	}
	return nil
}
