package returnn

import (
	"fmt"

	"github.com/unixpickle/anynet/anys2s"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
)

// A SampleList exposes a Dataset as an anys2s.SampleList
// so that it can be fed to an anysgd-based trainer.
//
// Shuffling permutes an index list rather than the
// underlying dataset, which stays untouched.
type SampleList struct {
	dataset Dataset
	creator anyvec.Creator
	indices []int
}

// NewSampleList creates a SampleList covering every
// sequence of the dataset in index order.
func NewSampleList(d Dataset, c anyvec.Creator) *SampleList {
	indices := make([]int, d.SeqCount())
	for i := range indices {
		indices[i] = i
	}
	return &SampleList{dataset: d, creator: c, indices: indices}
}

// Len returns the number of samples.
func (s *SampleList) Len() int {
	return len(s.indices)
}

// Swap swaps two samples.
func (s *SampleList) Swap(i, j int) {
	s.indices[i], s.indices[j] = s.indices[j], s.indices[i]
}

// Slice generates a shallow copy of a subset of the list.
func (s *SampleList) Slice(i, j int) anysgd.SampleList {
	return &SampleList{
		dataset: s.dataset,
		creator: s.creator,
		indices: append([]int{}, s.indices[i:j]...),
	}
}

// GetSample materializes the sample at the index.
func (s *SampleList) GetSample(idx int) (*anys2s.Sample, error) {
	seq, err := s.dataset.Seq(s.indices[idx])
	if err != nil {
		return nil, err
	}
	if seq == nil {
		return nil, fmt.Errorf("get sample: sequence %d out of range", s.indices[idx])
	}
	return &anys2s.Sample{Input: seq.Data, Output: seq.Classes}, nil
}

// Creator returns the creator used for sample vectors.
func (s *SampleList) Creator() anyvec.Creator {
	return s.creator
}
