// Package returnn provides sequence datasets and
// learning-rate control for training regression models on
// paired input/target feature sequences.
//
// The sub-packages divide the work: seqstore reads
// sequences out of binary containers, stereods turns them
// into normalized (and optionally context-stacked)
// datasets, and lrcontrol adapts the learning rate across
// epochs from tracked error measures.
package returnn

import "github.com/unixpickle/anyvec"

// A Seq is one training example: a time-ordered list of
// input feature frames and an optional list of target
// frames of the same length.
//
// Classes is nil for unlabeled sequences.
type Seq struct {
	Index   int
	Data    []anyvec.Vector
	Classes []anyvec.Vector
}

// NumFrames returns the number of time frames.
func (s *Seq) NumFrames() int {
	return len(s.Data)
}

// A Dataset is an indexable collection of sequences.
//
// Seq returns (nil, nil) when idx is past the end of the
// dataset, signaling the end of an iteration rather than
// an error.
type Dataset interface {
	SeqCount() int
	Seq(idx int) (*Seq, error)
	Close()
}
