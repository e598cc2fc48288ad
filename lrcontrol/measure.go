// Package lrcontrol adapts a training learning rate
// across epochs based on tracked error and score
// measures.
//
// A Controller pairs an epoch-indexed History of rates
// and error measures with a Strategy that computes the
// rate for each new epoch.  The history can be persisted
// to a plain-text log so a restarted process resumes with
// identical rates.
package lrcontrol

import "strings"

// A Measure is one recorded value of an error or score
// metric: either a single scalar, or a list of named
// scalars for a model with multiple outputs.
type Measure struct {
	scalar float64
	named  []Output
}

// An Output is one named scalar of a multi-output
// Measure.
type Output struct {
	Name  string
	Value float64
}

// Scalar creates a single-valued Measure.
func Scalar(v float64) Measure {
	return Measure{scalar: v}
}

// Outputs creates a multi-output Measure.
// The order of the outputs is preserved and decides which
// sub-output represents the metric when a single value is
// needed.
func Outputs(outs ...Output) Measure {
	return Measure{named: append([]Output{}, outs...)}
}

// flatten resolves a Measure recorded under a metric name
// to flat key/value pairs.
//
// A scalar keeps the bare metric name.  A single named
// output collapses to the bare metric name as well.
// Multiple outputs become "name_subname" keys, where the
// sub-name drops any "prefix:" (so "cost:output" under
// "dev_score" becomes "dev_score_output").
func (m Measure) flatten(name string) []Output {
	if m.named == nil {
		return []Output{{Name: name, Value: m.scalar}}
	}
	if len(m.named) == 1 {
		return []Output{{Name: name, Value: m.named[0].Value}}
	}
	flat := make([]Output, 0, len(m.named))
	for _, o := range m.named {
		sub := o.Name
		if idx := strings.Index(sub, ":"); idx >= 0 {
			sub = sub[idx+1:]
		}
		flat = append(flat, Output{Name: name + "_" + sub, Value: o.Value})
	}
	return flat
}
