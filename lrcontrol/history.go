package lrcontrol

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultErrorKey is the error measure consulted when no
// measure name is configured.
const DefaultErrorKey = "dev_score"

// An epochRecord holds everything tracked for one epoch:
// the learning rate used and the flattened error measures
// reported so far.
type epochRecord struct {
	rate    float64
	hasRate bool

	errors map[string]float64
	order  []string
}

func (e *epochRecord) set(key string, value float64) {
	if e.errors == nil {
		e.errors = map[string]float64{}
	}
	if _, ok := e.errors[key]; !ok {
		e.order = append(e.order, key)
	}
	e.errors[key] = value
}

// A History is an append-only, epoch-indexed store of
// learning rates and named error measures.
//
// Epoch records are only ever extended: reporting more
// errors for an epoch merges keys into its record, with
// later values winning on conflict.
type History struct {
	// ErrorKey is the configured error measure name driving
	// rate adaptation, e.g. "dev_score".  Empty uses a
	// default family (dev_score, dev_error, train_score).
	ErrorKey string

	epochs map[int]*epochRecord
}

// NewHistory creates an empty history tracking the given
// error measure name.
func NewHistory(errorKey string) *History {
	return &History{ErrorKey: errorKey, epochs: map[int]*epochRecord{}}
}

func (h *History) record(epoch int) *epochRecord {
	if h.epochs == nil {
		h.epochs = map[int]*epochRecord{}
	}
	rec, ok := h.epochs[epoch]
	if !ok {
		rec = &epochRecord{}
		h.epochs[epoch] = rec
	}
	return rec
}

// SetRate records the learning rate used for an epoch.
func (h *History) SetRate(epoch int, rate float64) {
	rec := h.record(epoch)
	rec.rate = rate
	rec.hasRate = true
}

// RateAt returns the recorded learning rate for an epoch.
func (h *History) RateAt(epoch int) (float64, bool) {
	if rec, ok := h.epochs[epoch]; ok && rec.hasRate {
		return rec.rate, true
	}
	return 0, false
}

// SetError merges a set of named measures into an epoch's
// record.  Multi-output measures are flattened at
// ingestion, so all lookups see flat keys.
func (h *History) SetError(epoch int, errs map[string]Measure) {
	rec := h.record(epoch)
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, o := range errs[name].flatten(name) {
			rec.set(o.Name, o.Value)
		}
	}
}

// ErrorDict returns a copy of the flattened error record
// for an epoch.  It fails when no errors were reported
// for the epoch.
func (h *History) ErrorDict(epoch int) (map[string]float64, error) {
	rec, ok := h.epochs[epoch]
	if !ok || len(rec.errors) == 0 {
		return nil, fmt.Errorf("no errors recorded for epoch %d", epoch)
	}
	res := make(map[string]float64, len(rec.errors))
	for k, v := range rec.errors {
		res[k] = v
	}
	return res, nil
}

// Epochs returns the epochs with any recorded state, in
// ascending order.
func (h *History) Epochs() []int {
	var res []int
	for e := range h.epochs {
		res = append(res, e)
	}
	sort.Ints(res)
	return res
}

// ErrorEpochs returns the epochs with at least one
// recorded error measure, in ascending order.
func (h *History) ErrorEpochs() []int {
	var res []int
	for e, rec := range h.epochs {
		if len(rec.errors) > 0 {
			res = append(res, e)
		}
	}
	sort.Ints(res)
	return res
}

// LastRatedEpoch returns the most recent epoch before
// `before` with a recorded learning rate.
func (h *History) LastRatedEpoch(before int) (int, bool) {
	best, ok := 0, false
	for e, rec := range h.epochs {
		if rec.hasRate && e < before && (!ok || e > best) {
			best, ok = e, true
		}
	}
	return best, ok
}

// KeyForEpoch resolves the configured error measure name
// to the concrete flattened key tracked for an epoch.
//
// A bare-key hit wins.  For a multi-output metric the
// first flattened sub-output in insertion order is chosen;
// this is a deliberate single-valued choice, not an
// aggregate.  When no measure name is configured, the
// dev_score, dev_error and train_score families are tried
// in that order.
func (h *History) KeyForEpoch(epoch int) string {
	candidates := []string{DefaultErrorKey, "dev_error", "train_score"}
	if h.ErrorKey != "" {
		candidates = []string{h.ErrorKey}
	}

	rec, ok := h.epochs[epoch]
	if !ok || len(rec.errors) == 0 {
		return candidates[0]
	}
	for _, cand := range candidates {
		if _, ok := rec.errors[cand]; ok {
			return cand
		}
		for _, key := range rec.order {
			if strings.HasPrefix(key, cand+"_") {
				return key
			}
		}
	}
	return candidates[0]
}

// ErrorValue returns the value of the tracked error
// measure for an epoch.
//
// An epoch with no error record yields ok == false and no
// error: there is simply no data yet.  An epoch whose
// record exists but lacks the configured measure is a
// configuration mismatch between the training loop and
// the controller, and fails.
func (h *History) ErrorValue(epoch int) (value float64, ok bool, err error) {
	rec, recorded := h.epochs[epoch]
	if !recorded || len(rec.errors) == 0 {
		return 0, false, nil
	}
	key := h.KeyForEpoch(epoch)
	v, present := rec.errors[key]
	if !present {
		return 0, false, fmt.Errorf("epoch %d has no error measure %q (have: %s)",
			epoch, key, strings.Join(rec.order, ", "))
	}
	return v, true, nil
}
