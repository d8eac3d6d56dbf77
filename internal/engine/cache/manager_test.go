package cache

import (
	"errors"
	"math"
	"testing"
)

type sample struct {
	key   string
	value float64
	ratio float64
}

func recorder(out *[]sample) Applier[float64] {
	return func(key string, base, end float64, ratio float64) error {
		*out = append(*out, sample{key, base*(1-ratio) + end*ratio, ratio})
		return nil
	}
}

func TestManagerStates(t *testing.T) {
	var m Manager[float64]
	if m.State() != StateUninitialized {
		t.Errorf("expected uninitialized, got %v", m.State())
	}

	m.Init(0, 2)
	if m.State() != StateFilling || m.NumFrames() != 3 {
		t.Fatalf("expected filling with 3 frames, got %v with %d", m.State(), m.NumFrames())
	}

	m.Set(0, []Entry[float64]{{"a", 1}})
	m.Set(1, []Entry[float64]{{"a", 2}})
	if m.AllReady() {
		t.Error("expected not ready with a missing slot")
	}
	m.Set(2, []Entry[float64]{{"a", 3}})
	if !m.AllReady() || m.State() != StateReady {
		t.Errorf("expected ready after filling every slot, got %v", m.State())
	}

	m.Init(0, 4)
	m.MakeAllReady()
	if !m.AllReady() {
		t.Error("expected MakeAllReady to force ready")
	}
}

func TestManagerNotReadyIsNoop(t *testing.T) {
	var m Manager[float64]
	m.Init(0, 1)
	m.Set(0, []Entry[float64]{{"a", 1}})

	var got []sample
	if err := m.RetrieveValuesAtTime(0, recorder(&got)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no writes before ready, got %v", got)
	}
}

func TestManagerIndexByTime(t *testing.T) {
	var m Manager[float64]
	m.Init(5, 9)

	tests := []struct{ in, want int }{
		{5, 0}, {7, 2}, {9, 4}, {-3, 0}, {100, 4},
	}
	for _, tt := range tests {
		if got := m.IndexByTime(tt.in); got != tt.want {
			t.Errorf("IndexByTime(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestManagerInterpolation(t *testing.T) {
	var m Manager[float64]
	m.Init(0, 2)
	m.Set(0, []Entry[float64]{{"a", 0}, {"b", 10}})
	m.Set(1, []Entry[float64]{{"a", 4}, {"b", 20}})
	m.Set(2, []Entry[float64]{{"b", 30}, {"a", 8}})

	tests := []struct {
		time  float64
		wantA float64
		wantB float64
	}{
		{0, 0, 10},
		{0.25, 1, 12.5},
		{1, 4, 20},
		// Slot 2 stores keys in another order.
		{1.5, 6, 25},
		{2, 8, 30},
		{7.5, 8, 30},
		{-1.5, 0, 10},
	}

	for _, tt := range tests {
		var got []sample
		if err := m.RetrieveValuesAtTime(tt.time, recorder(&got)); err != nil {
			t.Fatalf("t=%v: unexpected error: %v", tt.time, err)
		}
		vals := map[string]float64{}
		for _, s := range got {
			vals[s.key] = s.value
		}
		if math.Abs(vals["a"]-tt.wantA) > 1e-12 || math.Abs(vals["b"]-tt.wantB) > 1e-12 {
			t.Errorf("t=%v: expected a=%v b=%v, got %v", tt.time, tt.wantA, tt.wantB, vals)
		}
	}
}

func TestManagerIdempotent(t *testing.T) {
	var m Manager[float64]
	m.Init(0, 1)
	m.Set(0, []Entry[float64]{{"a", 1}})
	m.Set(1, []Entry[float64]{{"a", 3}})

	var first, second []sample
	if err := m.RetrieveValuesAtTime(0.3, recorder(&first)); err != nil {
		t.Fatal(err)
	}
	if err := m.RetrieveValuesAtTime(0.3, recorder(&second)); err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || first[0] != second[0] {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}

func TestManagerApplierError(t *testing.T) {
	var m Manager[float64]
	m.Init(0, 0)
	m.Set(0, []Entry[float64]{{"a", 1}})

	err := m.RetrieveValuesAtTime(0, func(string, float64, float64, float64) error {
		return ErrUnknownKey
	})
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestManagerFind(t *testing.T) {
	var m Manager[float64]
	m.Init(0, 0)
	m.Set(0, []Entry[float64]{{"a", 1}, {"b", 2}})

	if v, ok := m.Find(0, "b"); !ok || v != 2 {
		t.Errorf("Find(b) = %v, %v", v, ok)
	}
	if _, ok := m.Find(0, "c"); ok {
		t.Error("expected missing key")
	}
	if _, ok := m.Find(3, "a"); ok {
		t.Error("expected out of range slot to be empty")
	}
}
