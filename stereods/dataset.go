// Package stereods implements datasets of paired
// input/target feature sequences ("stereo" data) read
// from binary containers, with optional mean/variance
// normalization and optional temporal context stacking.
package stereods

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/tran-khoa/returnn"
	"github.com/tran-khoa/returnn/seqstore"
	"github.com/unixpickle/essentials"
)

// Options configures a Dataset.
type Options struct {
	// NumOutputs is the target feature width to register
	// when the containers carry no "outputs" group.
	// It is ignored when they do.
	NumOutputs int

	// NormPath optionally points to a container with
	// root-level "mean" and/or "variance" entries matching
	// the input feature width.
	NormPath string

	// Opener opens containers; nil uses the default
	// container format.
	Opener seqstore.OpenFunc

	// Logger, if non-nil, receives teardown diagnostics.
	Logger *log.Logger
}

// A Dataset reads (input, target) sequence pairs from one
// or more containers, normalizing and optionally context
// stacking the inputs.
//
// It implements returnn.Dataset.
type Dataset struct {
	store *seqstore.Store
	trans *Transformer

	count      int
	inputDim   int
	outputDims map[string]int
}

// NewDataset opens the container at path (or every
// container in a bundle manifest) and probes the dataset's
// dimensions.
//
// Construction fails if any container path does not exist,
// if the dataset is empty, or if the containers carry no
// "outputs" group and opts supplies no NumOutputs.
func NewDataset(path string, opts *Options) (*Dataset, error) {
	return newDataset(path, 0, opts)
}

func newDataset(path string, tau int, opts *Options) (ds *Dataset, err error) {
	defer essentials.AddCtxTo("new stereo dataset", &err)
	if opts == nil {
		opts = &Options{}
	}

	store, err := seqstore.NewStore(path, opts.Opener)
	if err != nil {
		return nil, err
	}
	store.Logger = opts.Logger

	ds = &Dataset{
		store: store,
		trans: &Transformer{Context: tau},
		count: store.SeqCount(),
	}
	if opts.NormPath != "" {
		err := ds.loadNormalization(opts.NormPath, opts.Opener)
		if err != nil {
			store.Close()
			return nil, err
		}
	}
	if err := ds.probeDimensions(opts.NumOutputs); err != nil {
		store.Close()
		return nil, err
	}
	return ds, nil
}

// loadNormalization reads the optional "mean" and
// "variance" entries of a normalization container.
func (d *Dataset) loadNormalization(path string, open seqstore.OpenFunc) error {
	if open == nil {
		open = seqstore.Open
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	container, err := open(path)
	if err != nil {
		return err
	}
	defer container.Close()

	if container.HasEntry("", "mean") {
		d.trans.Mean, err = container.ReadVector("", "mean")
		if err != nil {
			return err
		}
	}
	if container.HasEntry("", "variance") {
		d.trans.Variance, err = container.ReadVector("", "variance")
		if err != nil {
			return err
		}
	}
	return nil
}

// probeDimensions materializes sequence 0 to derive the
// input width, and fixes the output-dimension table.
func (d *Dataset) probeDimensions(numOutputs int) error {
	seq, err := d.Seq(0)
	if err != nil {
		return err
	}
	if seq == nil || seq.NumFrames() == 0 {
		return errors.New("cannot probe dimensions: dataset has no sequence data")
	}
	d.inputDim = seq.Data[0].Len()

	if d.store.HasTargets() {
		if len(seq.Classes) == 0 {
			return errors.New("cannot probe dimensions: sequence 0 has no target frames")
		}
		d.outputDims = map[string]int{"classes": seq.Classes[0].Len()}
	} else {
		if numOutputs <= 0 {
			return errors.New("containers carry no outputs; the output dimension " +
				"must be specified via NumOutputs")
		}
		d.outputDims = map[string]int{"classes": numOutputs}
	}
	return nil
}

// SeqCount returns the number of sequences, computed once
// when the dataset was opened.
func (d *Dataset) SeqCount() int {
	return d.count
}

// Seq returns the transformed sequence at idx, or
// (nil, nil) when idx is past the end of the dataset.
func (d *Dataset) Seq(idx int) (*returnn.Seq, error) {
	if idx < 0 || idx >= d.count {
		return nil, nil
	}
	in, target, err := d.store.ReadSeq(idx)
	if err != nil {
		return nil, err
	}
	return &returnn.Seq{
		Index:   idx,
		Data:    d.trans.Apply(in),
		Classes: target,
	}, nil
}

// InputDim returns the feature width of a transformed
// input frame.
func (d *Dataset) InputDim() int {
	return d.inputDim
}

// DataDim returns the feature width of the named data
// key: "data" for inputs, "classes" for targets.
func (d *Dataset) DataDim(key string) (int, error) {
	if key == "data" {
		return d.inputDim, nil
	}
	if dim, ok := d.outputDims[key]; ok {
		return dim, nil
	}
	return 0, fmt.Errorf("data dim: unknown key %q", key)
}

// Close releases the underlying containers.  Close
// failures inside the store are swallowed.
func (d *Dataset) Close() {
	d.store.Close()
}
