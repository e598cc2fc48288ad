package seqstore

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

func TestFileContainerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.seq")

	var b Builder
	if err := b.AddRows("inputs", "0", rows32([][]float32{{1, 2}, {3, 4}})); err != nil {
		t.Fatal(err)
	}
	if err := b.AddRows("inputs", "1", rows32([][]float32{{5, 6}})); err != nil {
		t.Fatal(err)
	}
	b.AddVector("", "mean", anyvec32.MakeVectorData([]float32{1, 2}))
	if err := b.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if !c.HasGroup("inputs") {
		t.Error("missing inputs group")
	}
	if c.HasGroup("outputs") {
		t.Error("unexpected outputs group")
	}
	if !c.HasEntry("", "mean") {
		t.Error("missing root mean entry")
	}

	rows, err := c.ReadRows("inputs", "0")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows but got %d", len(rows))
	}
	assertVector(t, rows[1], []float32{3, 4})

	mean, err := c.ReadVector("", "mean")
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, mean, []float32{1, 2})

	if _, err := c.ReadRows("inputs", "7"); err == nil {
		t.Error("expected error for missing entry")
	}
	if _, err := c.ReadVector("inputs", "0"); err == nil {
		t.Error("expected error reading 2-D entry as 1-D")
	}
}

func TestEntryNameOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.seq")

	var b Builder
	for _, name := range []string{"10", "2", "0", "1"} {
		if err := b.AddRows("inputs", name, rows32([][]float32{{1}})); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	names := c.EntryNames("inputs")
	expected := []string{"0", "1", "2", "10"}
	if len(names) != len(expected) {
		t.Fatalf("expected %d names but got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("name %d: expected %q but got %q", i, name, names[i])
		}
	}
}

func TestStoreSingleContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.seq")
	writeTestContainer(t, path, [][][]float32{
		{{1, 2}, {3, 4}},
		{{5, 6}},
	}, [][][]float32{
		{{0.5}, {1.5}},
		{{2.5}},
	})

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if store.SeqCount() != 2 {
		t.Errorf("expected 2 sequences but got %d", store.SeqCount())
	}
	if !store.HasTargets() {
		t.Error("expected targets")
	}

	in, target, err := store.ReadSeq(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(in) != 2 || len(target) != 2 {
		t.Fatalf("bad frame counts: %d inputs, %d targets", len(in), len(target))
	}
	assertVector(t, in[0], []float32{1, 2})
	assertVector(t, target[1], []float32{1.5})

	if _, _, err := store.ReadSeq(2); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestStoreBundle(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "part1.seq")
	path2 := filepath.Join(dir, "part2.seq")
	writeTestContainer(t, path1, [][][]float32{{{1, 2}}}, [][][]float32{{{1}}})
	writeTestContainer(t, path2, [][][]float32{{{3, 4}}, {{5, 6}}}, [][][]float32{{{2}}, {{3}}})

	bundle := filepath.Join(dir, "all.bundle")
	contents := path1 + "\n\n" + path2 + "\n"
	if err := os.WriteFile(bundle, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(bundle, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if store.SeqCount() != 3 {
		t.Fatalf("expected 3 sequences but got %d", store.SeqCount())
	}

	// Global indices follow container order.
	in, _, err := store.ReadSeq(1)
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, in[0], []float32{3, 4})
}

func TestStoreMissingPath(t *testing.T) {
	if _, err := NewStore(filepath.Join(t.TempDir(), "nope.seq"), nil); err == nil {
		t.Error("expected error for missing container")
	}

	bundle := filepath.Join(t.TempDir(), "all.bundle")
	err := os.WriteFile(bundle, []byte("/definitely/not/there.seq\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(bundle, nil); err == nil {
		t.Error("expected error for missing bundled container")
	}
}

func writeTestContainer(t *testing.T, path string, inputs, outputs [][][]float32) {
	t.Helper()
	var b Builder
	for i, seq := range inputs {
		name := []string{"0", "1", "2", "3"}[i]
		if err := b.AddRows("inputs", name, rows32(seq)); err != nil {
			t.Fatal(err)
		}
	}
	for i, seq := range outputs {
		name := []string{"0", "1", "2", "3"}[i]
		if err := b.AddRows("outputs", name, rows32(seq)); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.WriteFile(path); err != nil {
		t.Fatal(err)
	}
}

func rows32(rows [][]float32) []anyvec.Vector {
	res := make([]anyvec.Vector, len(rows))
	for i, r := range rows {
		res[i] = anyvec32.MakeVectorData(r)
	}
	return res
}

func assertVector(t *testing.T, v anyvec.Vector, expected []float32) {
	t.Helper()
	actual := v.Data().([]float32)
	if len(actual) != len(expected) {
		t.Fatalf("expected %d components but got %d", len(expected), len(actual))
	}
	for i, x := range expected {
		if math.Abs(float64(x-actual[i])) > 1e-4 {
			t.Errorf("component %d: expected %f but got %f", i, x, actual[i])
		}
	}
}
