// Package cache stores per-frame keyframe values for an animation clip
// and writes interpolated values back into the skeleton.
package cache

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/creature/pkg/math"
)

// ErrUnknownKey is returned when a cached entry names a bone or region
// the target does not have.
var ErrUnknownKey = errors.New("cache entry key not found in target")

// State is the fill state of a cache.
type State int

const (
	StateUninitialized State = iota
	StateFilling
	StateReady
)

func (s State) String() string {
	switch s {
	case StateFilling:
		return "filling"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Entry is one keyed value in a frame slot.
type Entry[V any] struct {
	Key   string
	Value V
}

// Applier writes the interpolation of base and end, at ratio in [0, 1),
// into the target identified by key.
type Applier[V any] func(key string, base, end V, ratio float64) error

// Manager holds one slot of entries per integer frame in
// [startTime, endTime].
type Manager[V any] struct {
	startTime, endTime int
	table              [][]Entry[V]
	ready              []bool
	numReady           int
	state              State
}

// Init allocates endTime-startTime+1 empty slots and resets readiness.
func (m *Manager[V]) Init(startTime, endTime int) {
	if endTime < startTime {
		endTime = startTime
	}
	m.startTime = startTime
	m.endTime = endTime

	n := endTime - startTime + 1
	m.table = make([][]Entry[V], n)
	m.ready = make([]bool, n)
	m.numReady = 0
	m.state = StateFilling
}

// StartTime returns the first frame.
func (m *Manager[V]) StartTime() int { return m.startTime }

// EndTime returns the last frame.
func (m *Manager[V]) EndTime() int { return m.endTime }

// NumFrames returns the number of slots.
func (m *Manager[V]) NumFrames() int { return len(m.table) }

// State returns the fill state.
func (m *Manager[V]) State() State { return m.state }

// IndexByTime maps a frame time to its slot, clamped to the table.
func (m *Manager[V]) IndexByTime(t int) int {
	if len(m.table) == 0 {
		return 0
	}
	return math.Clamp(t-m.startTime, 0, len(m.table)-1)
}

// Set stores the entries for the slot of time and marks it ready.
func (m *Manager[V]) Set(time int, entries []Entry[V]) {
	if m.state == StateUninitialized {
		return
	}
	idx := m.IndexByTime(time)
	m.table[idx] = entries
	if !m.ready[idx] {
		m.ready[idx] = true
		m.numReady++
	}
	if m.numReady == len(m.ready) {
		m.state = StateReady
	}
}

// MakeAllReady marks every slot ready, filled or not.
func (m *Manager[V]) MakeAllReady() {
	if m.state == StateUninitialized {
		return
	}
	for i := range m.ready {
		m.ready[i] = true
	}
	m.numReady = len(m.ready)
	m.state = StateReady
}

// AllReady reports whether the cache can be sampled.
func (m *Manager[V]) AllReady() bool { return m.state == StateReady }

// Frame returns the entries of slot idx.
func (m *Manager[V]) Frame(idx int) []Entry[V] {
	if idx < 0 || idx >= len(m.table) {
		return nil
	}
	return m.table[idx]
}

// Find returns the value stored for key in slot idx.
func (m *Manager[V]) Find(idx int, key string) (V, bool) {
	for _, e := range m.Frame(idx) {
		if e.Key == key {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// RetrieveValuesAtTime interpolates between the slots around t and
// hands each entry to apply. It does nothing until the cache is ready.
func (m *Manager[V]) RetrieveValuesAtTime(t float64, apply Applier[V]) error {
	if m.state != StateReady || len(m.table) == 0 {
		return nil
	}

	floorT := gomath.Floor(t)
	baseIdx := m.IndexByTime(int(floorT))
	endIdx := math.Clamp(baseIdx+1, 0, len(m.table)-1)
	ratio := t - floorT
	if raw := int(floorT) - m.startTime; raw < 0 || raw >= len(m.table)-1 {
		// Outside the table the nearest slot is held.
		endIdx = baseIdx
		ratio = 0
	}

	base := m.table[baseIdx]
	end := m.table[endIdx]
	for i, e := range base {
		endVal := e.Value
		if i < len(end) && end[i].Key == e.Key {
			endVal = end[i].Value
		} else if v, ok := m.Find(endIdx, e.Key); ok {
			endVal = v
		}
		if err := apply(e.Key, e.Value, endVal, ratio); err != nil {
			return err
		}
	}
	return nil
}
