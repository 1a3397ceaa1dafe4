// Package datastrategy turns in-memory time series into the per-tick values and
// observation windows the simulation reads.
package datastrategy

import (
	"errors"
	"fmt"
)

// Direction selects how an observation window is anchored to the current tick.
type Direction string

const (
	// Backward windows start at the most recent scheduling boundary.
	Backward Direction = "backward"
	// Forward windows look at the next day, like a production forecast.
	Forward Direction = "forward"
)

var ErrStateMismatch = errors.New("strategy state does not match strategy shape")

// Strategy is a windowed view over one time-indexed quantity.
//
// Process returns the value at idx and caches it as the last processed value.
// Indices outside the backing series are a caller bug; Len reports the
// usable length so callers can check bounds up front (0 means unbounded).
type Strategy interface {
	Process(idx int) float64
	Observation(idx, schedulingHour int) []float64
	ObservationSize() int
	Direction() Direction
	LastProcessed() (float64, bool)
	Len() int

	Snapshot() State
	Restore(State) error
}

// Seeder is implemented by strategies that draw random noise.
type Seeder interface {
	Seed(seed uint64)
}

// State is the mutable part of a strategy, captured so a dry run can rewind it.
type State struct {
	LastProcessed float64
	Processed     bool
	RNG           []byte
	Children      []State
}

// Window describes a fixed-length observation window.
type Window struct {
	Size int
	Dir  Direction
}

func (w Window) ObservationSize() int { return w.Size }
func (w Window) Direction() Direction { return w.Dir }

// Bounds returns the half-open index range observed at idx.
func (w Window) Bounds(idx, schedulingHour int) (start, end int) {
	start = idx - schedulingHour
	if w.Dir == Forward {
		start = idx + 24 - schedulingHour
	}
	return start, start + w.Size
}

// LookAhead is how many indices past idx an observation may read.
func (w Window) LookAhead(schedulingHour int) int {
	_, end := w.Bounds(0, schedulingHour)
	return max(end-1, 0)
}

type cache struct {
	last      float64
	processed bool
}

func (c *cache) set(v float64) float64 {
	c.last = v
	c.processed = true
	return v
}

func (c *cache) LastProcessed() (float64, bool) { return c.last, c.processed }

func (c *cache) snapshot() State { return State{LastProcessed: c.last, Processed: c.processed} }

func (c *cache) restore(s State) {
	c.last = s.LastProcessed
	c.processed = s.Processed
}

// Series is an immutable float column.
type Series struct {
	name   string
	values []float64
}

func NewSeries(name string, values []float64) *Series {
	cp := make([]float64, len(values))
	copy(cp, values)
	return &Series{name: name, values: cp}
}

func (s *Series) Name() string { return s.name }
func (s *Series) Len() int     { return len(s.values) }

func (s *Series) At(idx int) float64 {
	if idx < 0 || idx >= len(s.values) {
		panic(fmt.Sprintf("series %q: index %d out of range [0, %d)", s.name, idx, len(s.values)))
	}
	return s.values[idx]
}

// Slice copies values in [start, end).
func (s *Series) Slice(start, end int) []float64 {
	out := make([]float64, end-start)
	copy(out, s.values[start:end])
	return out
}

// ClearLastProcessed forgets the cached value of s and its children while
// keeping any RNG state.
func ClearLastProcessed(s Strategy) error {
	return s.Restore(clearCache(s.Snapshot()))
}

func clearCache(st State) State {
	st.LastProcessed = 0
	st.Processed = false
	for i := range st.Children {
		st.Children[i] = clearCache(st.Children[i])
	}
	return st
}
