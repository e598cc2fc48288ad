package lrcontrol

import (
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"
)

// A Controller runs the per-epoch learning rate control
// loop: it computes and records the rate for each epoch
// through its Strategy, collects the epoch's error
// measures afterwards, and persists both.
//
// Epochs are numbered from 1 and are expected to be
// requested in non-decreasing order.  Re-requesting an
// epoch's rate returns the recorded value without
// recomputation.
type Controller struct {
	// History holds the per-epoch state.
	History *History

	// Strategy computes rates for new epochs.
	Strategy Strategy

	// MinRate, if non-zero, is a lower clamp on computed
	// rates.
	MinRate float64

	// Filename, if non-empty, is the control log: it is
	// rewritten after every state change so a restarted
	// process can resume.
	Filename string

	// Logger, if non-nil, receives rate decisions.
	Logger *log.Logger
}

// New creates a Controller with an empty history.
func New(strategy Strategy, errorKey string) *Controller {
	return &Controller{
		History:  NewHistory(errorKey),
		Strategy: strategy,
	}
}

// LearningRate returns the rate to use for an epoch,
// computing and recording it on first request.
func (c *Controller) LearningRate(epoch int) (float64, error) {
	if epoch < 1 {
		return 0, fmt.Errorf("learning rate: invalid epoch %d", epoch)
	}
	if rate, ok := c.History.RateAt(epoch); ok {
		return rate, nil
	}
	rate, err := c.Strategy.Rate(c.History, epoch)
	if err != nil {
		return 0, essentials.AddCtx("learning rate", err)
	}
	if c.MinRate > 0 && rate < c.MinRate {
		rate = c.MinRate
	}
	c.History.SetRate(epoch, rate)
	c.logf("epoch %d: learning rate %v", epoch, rate)
	if err := c.save(); err != nil {
		return 0, err
	}
	return rate, nil
}

// SetEpochError reports the error measures of a finished
// epoch.  The epoch's rate must have been requested
// first: rate decisions precede error reporting.
//
// Repeated calls for the same epoch merge their keys into
// the record, with later values winning.
func (c *Controller) SetEpochError(epoch int, errs map[string]Measure) error {
	if _, ok := c.History.RateAt(epoch); !ok {
		return fmt.Errorf("set epoch error: no learning rate was computed for epoch %d", epoch)
	}
	c.History.SetError(epoch, errs)
	return c.save()
}

// EpochErrors returns the flattened error record of an
// epoch.
func (c *Controller) EpochErrors(epoch int) (map[string]float64, error) {
	return c.History.ErrorDict(epoch)
}

// ErrorKey resolves the configured error measure to its
// concrete flattened key for an epoch.
func (c *Controller) ErrorKey(epoch int) string {
	return c.History.KeyForEpoch(epoch)
}

func (c *Controller) save() error {
	if c.Filename == "" {
		return nil
	}
	return c.History.Save(c.Filename)
}

func (c *Controller) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf("learning rate control: "+format, args...)
	}
}

// Config is the construction surface for controllers, in
// the shape a training configuration provides.
type Config struct {
	// Strategy is one of "constant", "newbob",
	// "newbob_multi_epoch" or "exponential".
	// Empty means "constant".
	Strategy string

	// LearningRate is the base rate.  If it is 0, 1.0 is
	// used.
	LearningRate float64

	// MinLearningRate optionally clamps computed rates.
	MinLearningRate float64

	// ErrorMeasure names the tracked measure driving
	// adaptation, e.g. "dev_score".
	ErrorMeasure string

	// DecayFactor and ErrorThreshold configure the newbob
	// family and the exponential decay; zero values use the
	// strategy defaults.
	DecayFactor    float64
	ErrorThreshold float64

	// MultiNumEpochs and MultiUpdateInterval configure
	// newbob_multi_epoch.
	MultiNumEpochs      int
	MultiUpdateInterval int

	// RelativeToRate enables learning-rate-relative scaling
	// of relative errors for newbob_multi_epoch.
	RelativeToRate bool

	// Filename, if non-empty, is the persisted control log.
	// An existing log is loaded before the first epoch.
	Filename string

	// Logger, if non-nil, receives rate decisions.
	Logger *log.Logger
}

// FromConfig builds a Controller from a configuration,
// loading any existing control log.
func FromConfig(cfg *Config) (*Controller, error) {
	initRate := cfg.LearningRate
	if initRate == 0 {
		initRate = 1
	}

	var strategy Strategy
	switch cfg.Strategy {
	case "", "constant":
		strategy = &Constant{Init: initRate}
	case "newbob", "newbob_relative":
		strategy = &NewbobRelative{
			Init:      initRate,
			Decay:     cfg.DecayFactor,
			Threshold: cfg.ErrorThreshold,
		}
	case "newbob_multi_epoch":
		strategy = &NewbobMultiEpoch{
			Init:           initRate,
			Decay:          cfg.DecayFactor,
			Threshold:      cfg.ErrorThreshold,
			NumEpochs:      cfg.MultiNumEpochs,
			UpdateInterval: cfg.MultiUpdateInterval,
			RelativeToRate: cfg.RelativeToRate,
		}
	case "exponential":
		strategy = &Exponential{Init: initRate, Decay: cfg.DecayFactor}
	default:
		return nil, fmt.Errorf("unknown learning rate control strategy %q", cfg.Strategy)
	}

	c := New(strategy, cfg.ErrorMeasure)
	c.MinRate = cfg.MinLearningRate
	c.Filename = cfg.Filename
	c.Logger = cfg.Logger
	if cfg.Filename != "" {
		if _, err := os.Stat(cfg.Filename); err == nil {
			if err := c.History.Load(cfg.Filename); err != nil {
				return nil, err
			}
			c.logf("resumed %d epochs from %s", len(c.History.Epochs()), cfg.Filename)
		}
	}
	return c, nil
}

// A Rater adapts a Controller to the anysgd.Rater
// interface.
//
// anysgd passes fractional 0-based epochs; the controller
// tracks whole 1-based epochs, so the rate of epoch
// floor(e)+1 is used.  Strategy failures are treated as
// programmer errors and panic, since the Rater interface
// cannot surface them.
type Rater struct {
	Controller *Controller
}

// Rate returns the controller's rate for the epoch.
func (r *Rater) Rate(epoch float64) float64 {
	rate, err := r.Controller.LearningRate(int(epoch) + 1)
	if err != nil {
		panic(err)
	}
	return rate
}
