package aggregate

import (
	"math"

	"tally/internal/artifact"
)

// Totals accumulates per-target statistics across one run. Integer
// and float metrics stay in separate buckets until Finalize; metadata
// is last-write-wins.
type Totals struct {
	Int   map[string]int64
	Float map[string]float64
	Meta  map[string]string
}

func NewTotals() *Totals {
	return &Totals{
		Int:   map[string]int64{},
		Float: map[string]float64{},
		Meta:  map[string]string{},
	}
}

// Fold merges one accepted stats payload. Metrics the policy marks
// additive are summed; the rest are overwritten, so descriptive
// values (core counts, timestamps) reflect the latest artifact.
func (t *Totals) Fold(st *artifact.Stats, pol *Policy) {
	for k, v := range st.Int {
		if pol.Additive(k) {
			t.Int[k] += v
		} else {
			t.Int[k] = v
		}
	}
	for k, v := range st.Float {
		if pol.Additive(k) {
			t.Float[k] += v
		} else {
			t.Float[k] = v
		}
	}
	for k, v := range st.Metadata {
		t.Meta[k] = v
	}
}

// Finalize rounds float totals to the nearest integer, folds them
// into the integer bucket, and drops the float bucket. Rounding
// happens exactly once here, so repeated Folds never compound
// rounding error.
func (t *Totals) Finalize() {
	for k, v := range t.Float {
		t.Int[k] = int64(math.Round(v))
	}
	t.Float = nil
}
