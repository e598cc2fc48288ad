package lrcontrol

import "math"

// Defaults for the newbob strategy family.
const (
	defaultDecayFactor    = 0.5
	defaultErrorThreshold = -0.01
	defaultNumEpochs      = 5
)

// A Strategy computes the learning rate to use for an
// epoch, given the history of earlier epochs.
//
// Strategies never see the epoch they are rating in the
// history: its errors are reported only after its rate is
// decided.
type Strategy interface {
	Rate(h *History, epoch int) (float64, error)
}

// Constant always returns the base rate, ignoring the
// error history.
type Constant struct {
	Init float64
}

// Rate returns the base rate.
func (c *Constant) Rate(h *History, epoch int) (float64, error) {
	return c.Init, nil
}

// Exponential decays the rate by a fixed factor every
// epoch, independent of the error history.
type Exponential struct {
	Init float64

	// Decay is the per-epoch factor.  If it is 0, the
	// default newbob decay factor is used.
	Decay float64
}

// Rate returns Init * Decay^(epoch-1).
func (e *Exponential) Rate(h *History, epoch int) (float64, error) {
	if epoch <= 1 {
		return e.Init, nil
	}
	return e.Init * math.Pow(valueOrDefault(e.Decay, defaultDecayFactor),
		float64(epoch-1)), nil
}

// NewbobRelative keeps the previous epoch's rate and
// multiplies it by a decay factor whenever the relative
// improvement of the error measure between the two most
// recently rated epochs falls below a threshold.
type NewbobRelative struct {
	Init float64

	// Decay is the factor applied when improvement stalls.
	// If it is 0, a default of 0.5 is used.
	Decay float64

	// Threshold is compared against the relative error
	// (new-old)/|new|; improvement makes it negative.
	// If it is 0, a default of -0.01 is used.
	Threshold float64
}

// Rate computes the rate for the epoch.
//
// The first rated epoch gets the base rate, and the
// second still does: a decay decision needs a comparison
// between two fully recorded epochs.
func (n *NewbobRelative) Rate(h *History, epoch int) (float64, error) {
	last, ok := h.LastRatedEpoch(epoch)
	if !ok {
		return n.Init, nil
	}
	rate, _ := h.RateAt(last)
	prev, ok := h.LastRatedEpoch(last)
	if !ok {
		return rate, nil
	}
	oldErr, haveOld, err := h.ErrorValue(prev)
	if err != nil {
		return 0, err
	}
	newErr, haveNew, err := h.ErrorValue(last)
	if err != nil {
		return 0, err
	}
	if !haveOld || !haveNew || newErr == 0 {
		return rate, nil
	}
	relative := (newErr - oldErr) / math.Abs(newErr)
	if relative > valueOrDefault(n.Threshold, defaultErrorThreshold) {
		rate *= valueOrDefault(n.Decay, defaultDecayFactor)
	}
	return rate, nil
}

// NewbobMultiEpoch is NewbobRelative with the single
// epoch-to-epoch comparison replaced by the mean relative
// error over a trailing window of recorded epochs, so
// noisy per-epoch measures do not trigger spurious decay.
type NewbobMultiEpoch struct {
	Init float64

	// Decay and Threshold behave as in NewbobRelative.
	Decay     float64
	Threshold float64

	// NumEpochs is the trailing window size.  If it is 0, a
	// default of 5 is used.
	NumEpochs int

	// UpdateInterval spaces out decay decisions: for an
	// interval k > 1 only epochs with (epoch-1) % k == 0
	// may change the rate.
	UpdateInterval int

	// RelativeToRate additionally scales each relative
	// error by base-rate/used-rate, so an already lowered
	// rate needs proportionally less improvement.
	RelativeToRate bool
}

// Rate computes the rate for the epoch.
func (n *NewbobMultiEpoch) Rate(h *History, epoch int) (float64, error) {
	last, ok := h.LastRatedEpoch(epoch)
	if !ok {
		return n.Init, nil
	}
	rate, _ := h.RateAt(last)
	if n.UpdateInterval > 1 && (epoch-1)%n.UpdateInterval != 0 {
		return rate, nil
	}
	mean, ok, err := n.meanRelativeError(h, epoch)
	if err != nil {
		return 0, err
	}
	if !ok {
		return rate, nil
	}
	if mean > valueOrDefault(n.Threshold, defaultErrorThreshold) {
		rate *= valueOrDefault(n.Decay, defaultDecayFactor)
	}
	return rate, nil
}

// meanRelativeError averages the epoch-to-epoch relative
// errors over the last NumEpochs recorded epochs before
// `epoch`.  A window touching an unrecorded epoch yields
// ok == false: there is not enough history to act on.
func (n *NewbobMultiEpoch) meanRelativeError(h *History, epoch int) (float64, bool, error) {
	var window []int
	for _, e := range h.ErrorEpochs() {
		if e < epoch {
			window = append(window, e)
		}
	}
	num := n.NumEpochs
	if num == 0 {
		num = defaultNumEpochs
	}
	if len(window) > num {
		window = window[len(window)-num:]
	}
	if len(window) == 0 {
		return 0, false, nil
	}

	var sum float64
	for _, e := range window {
		relative, ok, err := n.relativeError(h, e-1, e)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		sum += relative
	}
	return sum / float64(len(window)), true, nil
}

func (n *NewbobMultiEpoch) relativeError(h *History, oldEpoch, newEpoch int) (float64, bool, error) {
	oldErr, ok, err := h.ErrorValue(oldEpoch)
	if err != nil || !ok {
		return 0, false, err
	}
	newErr, ok, err := h.ErrorValue(newEpoch)
	if err != nil || !ok {
		return 0, false, err
	}
	if newErr == 0 {
		return 0, false, nil
	}
	relative := (newErr - oldErr) / math.Abs(newErr)
	if n.RelativeToRate {
		if rate, ok := h.RateAt(newEpoch); ok && rate != 0 {
			relative *= n.Init / rate
		}
	}
	return relative, true, nil
}

func valueOrDefault(val, def float64) float64 {
	if val != 0 {
		return val
	}
	return def
}
