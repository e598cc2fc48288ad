package stereods

import (
	"github.com/unixpickle/anyvec"
)

// A Transformer applies optional mean/variance
// normalization and optional temporal context stacking to
// a sequence of input frames.
//
// Normalization subtracts Mean (if set) and then divides
// by the square root of Variance (if set), elementwise per
// frame.  Context stacking widens each frame to
// (2*Context+1) times its width by concatenating the
// Context preceding frames, the frame itself, and the
// Context following frames, zero-padded at the sequence
// boundaries.
type Transformer struct {
	// Mean and Variance are optional per-feature statistics
	// with the same length as an input frame.
	Mean     anyvec.Vector
	Variance anyvec.Vector

	// Context is the stacking radius tau.
	// Zero disables stacking.
	Context int

	std anyvec.Vector
}

// Apply transforms a sequence of frames.
//
// The caller's frames are never modified; the result
// shares no storage with the input.
func (t *Transformer) Apply(frames []anyvec.Vector) []anyvec.Vector {
	res := frames
	if t.Mean != nil || t.Variance != nil {
		res = make([]anyvec.Vector, len(frames))
		for i, f := range frames {
			g := f.Copy()
			if t.Mean != nil {
				g.Sub(t.Mean)
			}
			if t.Variance != nil {
				g.Div(t.stdDev())
			}
			res[i] = g
		}
	}
	if t.Context > 0 {
		res = StackContext(res, t.Context)
	} else if t.Mean == nil && t.Variance == nil {
		res = make([]anyvec.Vector, len(frames))
		for i, f := range frames {
			res[i] = f.Copy()
		}
	}
	return res
}

// stdDev lazily computes sqrt(Variance).
func (t *Transformer) stdDev() anyvec.Vector {
	if t.std == nil {
		t.std = t.Variance.Copy()
		anyvec.Pow(t.std, t.std.Creator().MakeNumeric(0.5))
	}
	return t.std
}

// StackContext builds a context feature for every frame by
// stacking the tau neighboring frames from each side onto
// it, in time order.  Neighbors outside the sequence are
// zero frames.
//
// The stacked features are built from a sliding window
// (a lagged queue of past frames and a lookahead queue),
// so the whole pass is linear in the number of frames.
func StackContext(frames []anyvec.Vector, tau int) []anyvec.Vector {
	if tau <= 0 {
		panic("context radius must be positive")
	}
	if len(frames) == 0 {
		return nil
	}
	c := frames[0].Creator()
	zero := c.MakeVector(frames[0].Len())

	left := make([]anyvec.Vector, 0, tau+1)
	right := make([]anyvec.Vector, 0, tau+1)
	for i := 0; i < tau; i++ {
		left = append(left, zero)
		if i+1 < len(frames) {
			right = append(right, frames[i+1])
		} else {
			right = append(right, zero)
		}
	}

	res := make([]anyvec.Vector, 0, len(frames))
	window := make([]anyvec.Vector, 0, 2*tau+1)
	for t, f := range frames {
		window = append(window[:0], left...)
		window = append(window, f)
		window = append(window, right...)
		res = append(res, c.Concat(window...))

		left = append(left[1:], f)
		right = right[1:]
		if t+1+tau < len(frames) {
			right = append(right, frames[t+1+tau])
		} else {
			right = append(right, zero)
		}
	}
	return res
}
