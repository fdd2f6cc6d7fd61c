package wiring

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tally/internal/aggregate"
	"tally/internal/artifact"
	"tally/internal/persist"
	"tally/internal/store"
)

func writeArtifact(t *testing.T, dir, name, stats, report string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for entry, body := range map[string]string{
		artifact.DefaultStatsEntry:  stats,
		artifact.DefaultReportEntry: report,
	} {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

const wiringStats = `{"int":{"files_analyzed":4},"normal":{"analyzer":"infer","version":"1.0.0"}}`

func wiringConfig(root, out string) aggregate.Config {
	return aggregate.Config{
		Root:      root,
		OutDir:    out,
		Signature: aggregate.Signature{Analyzer: "infer", Version: "1.0.0"},
	}
}

func TestRun_FullFlow(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	writeArtifact(t, root, "a/target.zip", wiringStats, "file,line\nx.c,1\n")
	writeArtifact(t, root, "b/target.zip", wiringStats, "file,line\ny.c,2\n")
	st := store.NewMemStore()

	got, err := Run(context.Background(), wiringConfig(root, out), st)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.RunID == 0 {
		t.Fatal("expected a ledger run id")
	}
	if got.Result.Counts.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", got.Result.Counts.Accepted)
	}

	for _, p := range []string{got.Paths.Report, got.Paths.Stats, got.Paths.Summary} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}

	rec, err := st.GetRun(got.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.Status != store.StatusOK || rec.Accepted != 2 || rec.ReportRows != 2 {
		t.Errorf("ledger record wrong: %+v", rec)
	}
	if rec.Analyzer != "infer" || rec.Version != "1.0.0" {
		t.Errorf("ledger signature wrong: %+v", rec)
	}
}

func TestRun_NilStoreSkipsLedger(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	writeArtifact(t, root, "a/target.zip", wiringStats, "file,line\nx.c,1\n")

	got, err := Run(context.Background(), wiringConfig(root, out), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.RunID != 0 {
		t.Errorf("RunID = %d, want 0 without a ledger", got.RunID)
	}
}

func TestRun_RecordsFailedRun(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	writeArtifact(t, root, "a/target.zip", wiringStats, "file,line\nx.c,1\n")
	writeArtifact(t, root, "b/target.zip", wiringStats, "file,severity\ny.c,HIGH\n")
	st := store.NewMemStore()

	_, err := Run(context.Background(), wiringConfig(root, out), st)
	if !errors.Is(err, aggregate.ErrHeaderMismatch) {
		t.Fatalf("err = %v, want ErrHeaderMismatch", err)
	}

	// No outputs on a failed run.
	if _, err := os.Stat(filepath.Join(out, persist.ReportFilename)); !os.IsNotExist(err) {
		t.Error("failed run must not write a report")
	}

	last, err := st.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || last.Status != store.StatusFailed {
		t.Fatalf("expected failed ledger record, got %+v", last)
	}
	if last.Error == "" {
		t.Error("failed record missing diagnostic")
	}
}

func TestRun_InvalidConfigNotRecorded(t *testing.T) {
	st := store.NewMemStore()
	_, err := Run(context.Background(), aggregate.Config{}, st)
	if err == nil {
		t.Fatal("expected config error")
	}
	if last, _ := st.LastRun(); last != nil {
		t.Errorf("config errors should not reach the ledger, got %+v", last)
	}
}
