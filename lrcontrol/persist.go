package lrcontrol

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/unixpickle/essentials"
)

// A logLine is one persisted epoch of control state.
//
// Unknown fields in parsed lines are ignored, so the
// format can grow without breaking older logs.
type logLine struct {
	Epoch        int                `json:"epoch"`
	LearningRate float64            `json:"learningRate"`
	Error        map[string]float64 `json:"error,omitempty"`
	ErrorKeys    []string           `json:"errorKeys,omitempty"`
}

// SaveTo writes the history as one JSON line per epoch,
// in ascending epoch order.
func (h *History) SaveTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, epoch := range h.Epochs() {
		rec := h.epochs[epoch]
		line := logLine{
			Epoch:        epoch,
			LearningRate: rec.rate,
			Error:        rec.errors,
			ErrorKeys:    rec.order,
		}
		if err := enc.Encode(&line); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the history to a log file, replacing any
// previous contents.
func (h *History) Save(path string) (err error) {
	defer essentials.AddCtxTo("save learning rate log", &err)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := h.SaveTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFrom merges persisted epochs into the history.
// Blank lines are skipped.
func (h *History) LoadFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		text := scanner.Text()
		if len(text) == 0 {
			continue
		}
		var line logLine
		if err := json.Unmarshal([]byte(text), &line); err != nil {
			return err
		}
		rec := h.record(line.Epoch)
		rec.rate = line.LearningRate
		rec.hasRate = true
		keys := line.ErrorKeys
		if keys == nil {
			for k := range line.Error {
				keys = append(keys, k)
			}
			sort.Strings(keys)
		}
		for _, k := range keys {
			if v, ok := line.Error[k]; ok {
				rec.set(k, v)
			}
		}
	}
	return scanner.Err()
}

// Load merges a persisted log file into the history.
func (h *History) Load(path string) (err error) {
	defer essentials.AddCtxTo("load learning rate log", &err)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return h.LoadFrom(f)
}
