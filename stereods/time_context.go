package stereods

import "errors"

// A TimeContextDataset is a Dataset whose context
// stacking stage is always enabled.
//
// Every input frame is widened to (2*tau+1) times the raw
// feature width; targets pass through unchanged.
type TimeContextDataset struct {
	*Dataset

	tau int
}

// NewTimeContextDataset opens a context-stacking dataset
// with radius tau.  Construction fails unless tau >= 1.
func NewTimeContextDataset(path string, tau int, opts *Options) (*TimeContextDataset, error) {
	if tau <= 0 {
		return nil, errors.New("new time context dataset: tau must be at least 1")
	}
	ds, err := newDataset(path, tau, opts)
	if err != nil {
		return nil, err
	}
	return &TimeContextDataset{Dataset: ds, tau: tau}, nil
}

// Tau returns the context radius.
func (d *TimeContextDataset) Tau() int {
	return d.tau
}
