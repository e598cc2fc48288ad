package stereods

import (
	"math"
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

func TestNormalization(t *testing.T) {
	raw := [][]float32{{1, 2}, {3, 4}, {5, 6}}
	mean := []float32{1, 2}
	variance := []float32{4, 9}

	t.Run("MeanAndVariance", func(t *testing.T) {
		trans := &Transformer{
			Mean:     anyvec32.MakeVectorData(mean),
			Variance: anyvec32.MakeVectorData(variance),
		}
		out := trans.Apply(frames32(raw))
		assertFrame(t, out[0], []float32{0, 0})
		assertFrame(t, out[1], []float32{1, 2.0 / 3})
		assertFrame(t, out[2], []float32{2, 4.0 / 3})
	})

	t.Run("MeanOnly", func(t *testing.T) {
		trans := &Transformer{Mean: anyvec32.MakeVectorData(mean)}
		out := trans.Apply(frames32(raw))
		assertFrame(t, out[1], []float32{2, 2})
	})

	t.Run("VarianceOnly", func(t *testing.T) {
		trans := &Transformer{Variance: anyvec32.MakeVectorData(variance)}
		out := trans.Apply(frames32(raw))
		assertFrame(t, out[1], []float32{1.5, 4.0 / 3})
	})

	t.Run("Identity", func(t *testing.T) {
		trans := &Transformer{}
		out := trans.Apply(frames32(raw))
		for i, row := range raw {
			assertFrame(t, out[i], row)
		}
	})
}

func TestNormalizationPreservesInput(t *testing.T) {
	in := frames32([][]float32{{1, 2}, {3, 4}})
	trans := &Transformer{
		Mean:     anyvec32.MakeVectorData([]float32{1, 1}),
		Variance: anyvec32.MakeVectorData([]float32{4, 4}),
		Context:  1,
	}
	trans.Apply(in)
	assertFrame(t, in[0], []float32{1, 2})
	assertFrame(t, in[1], []float32{3, 4})
}

func TestStackContext(t *testing.T) {
	raw := [][]float32{{1, 2}, {3, 4}, {5, 6}}

	t.Run("TauOne", func(t *testing.T) {
		out := StackContext(frames32(raw), 1)
		if len(out) != 3 {
			t.Fatalf("expected 3 frames but got %d", len(out))
		}
		assertFrame(t, out[0], []float32{0, 0, 1, 2, 3, 4})
		assertFrame(t, out[1], []float32{1, 2, 3, 4, 5, 6})
		assertFrame(t, out[2], []float32{3, 4, 5, 6, 0, 0})
	})

	t.Run("TauTwo", func(t *testing.T) {
		out := StackContext(frames32(raw), 2)
		if out[0].Len() != 5*2 {
			t.Fatalf("expected width 10 but got %d", out[0].Len())
		}
		assertFrame(t, out[0], []float32{0, 0, 0, 0, 1, 2, 3, 4, 5, 6})
		assertFrame(t, out[2], []float32{1, 2, 3, 4, 5, 6, 0, 0, 0, 0})
	})

	t.Run("CenterSlice", func(t *testing.T) {
		// The middle slice of every stacked frame is the
		// original frame.
		for tau := 1; tau <= 3; tau++ {
			out := StackContext(frames32(raw), tau)
			for i, frame := range out {
				center := frame.Slice(tau*2, tau*2+2)
				assertFrame(t, center, raw[i])
			}
		}
	})

	t.Run("LongerThanSequence", func(t *testing.T) {
		out := StackContext(frames32([][]float32{{7, 8}}), 2)
		assertFrame(t, out[0], []float32{0, 0, 0, 0, 7, 8, 0, 0, 0, 0})
	})

	t.Run("Empty", func(t *testing.T) {
		if out := StackContext(nil, 1); len(out) != 0 {
			t.Errorf("expected no frames but got %d", len(out))
		}
	})
}

func frames32(rows [][]float32) []anyvec.Vector {
	res := make([]anyvec.Vector, len(rows))
	for i, r := range rows {
		res[i] = anyvec32.MakeVectorData(r)
	}
	return res
}

func assertFrame(t *testing.T, v anyvec.Vector, expected []float32) {
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
