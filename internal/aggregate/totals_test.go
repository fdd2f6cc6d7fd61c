package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tally/internal/artifact"
)

func TestFold_AdditiveMetrics(t *testing.T) {
	tot := NewTotals()
	pol := DefaultPolicy()

	tot.Fold(&artifact.Stats{Int: map[string]int64{"files_analyzed": 3}}, pol)
	tot.Fold(&artifact.Stats{Int: map[string]int64{"files_analyzed": 5}}, pol)

	if got := tot.Int["files_analyzed"]; got != 8 {
		t.Errorf("files_analyzed = %d, want 8", got)
	}
}

func TestFold_DescriptiveMetricsOverwrite(t *testing.T) {
	tot := NewTotals()
	pol := DefaultPolicy()

	tot.Fold(&artifact.Stats{Int: map[string]int64{"cores": 8, "start_time": 100, "coverage_pc": 40}}, pol)
	tot.Fold(&artifact.Stats{Int: map[string]int64{"cores": 4, "start_time": 200, "coverage_pc": 75}}, pol)

	want := map[string]int64{"cores": 4, "start_time": 200, "coverage_pc": 75}
	if diff := cmp.Diff(want, tot.Int); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}
}

func TestFold_MetadataLastWriteWins(t *testing.T) {
	tot := NewTotals()
	pol := DefaultPolicy()

	tot.Fold(&artifact.Stats{Metadata: map[string]string{"host": "alpha", "project": "core"}}, pol)
	tot.Fold(&artifact.Stats{Metadata: map[string]string{"host": "beta"}}, pol)

	if got := tot.Meta["host"]; got != "beta" {
		t.Errorf("host = %q, want beta", got)
	}
	if got := tot.Meta["project"]; got != "core" {
		t.Errorf("project = %q, want core (untouched keys survive)", got)
	}
}

// Rounding must happen once at the end, not per fold: three 0.4s sum
// to 1.2 and round to 1, while per-fold rounding would yield 0.
func TestFinalize_RoundsAccumulatedFloats(t *testing.T) {
	tot := NewTotals()
	pol := DefaultPolicy()

	for i := 0; i < 3; i++ {
		tot.Fold(&artifact.Stats{Float: map[string]float64{"analysis_time": 0.4}}, pol)
	}
	tot.Finalize()

	if got := tot.Int["analysis_time"]; got != 1 {
		t.Errorf("analysis_time = %d, want 1", got)
	}
	if tot.Float != nil {
		t.Error("float bucket should be dropped after Finalize")
	}
}

func TestFinalize_RoundsHalfUp(t *testing.T) {
	tot := NewTotals()
	tot.Float["x"] = 2.5
	tot.Finalize()

	if got := tot.Int["x"]; got != 3 {
		t.Errorf("x = %d, want 3", got)
	}
}
