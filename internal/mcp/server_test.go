package mcp

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
	"tally/internal/store"
)

func writeArtifact(t *testing.T, dir, name, report string) {
	t.Helper()
	stats := `{"int":{"files_analyzed":2},"normal":{"analyzer":"infer","version":"1.0.0"}}`
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

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(filepath.Join(t.TempDir(), "tally.db"))
}

func TestHandleAggregate_FullRun(t *testing.T) {
	srv := testServer(t)
	root, out := t.TempDir(), t.TempDir()
	writeArtifact(t, root, "a/target.zip", "file,line\nx.c,1\n")
	writeArtifact(t, root, "b/target.zip", "file,line\ny.c,2\n")

	_, got, err := srv.handleAggregate(context.Background(), nil, aggregateInput{
		Root:            root,
		Out:             out,
		Analyzer:        "infer",
		AnalyzerVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("handleAggregate: %v", err)
	}
	if got.Accepted != 2 || got.ReportRows != 2 {
		t.Errorf("output = %+v, want 2 accepted, 2 rows", got)
	}
	if got.RunID == 0 {
		t.Error("expected a ledger run id")
	}
	if _, err := os.Stat(got.ReportPath); err != nil {
		t.Errorf("report missing: %v", err)
	}
}

func TestHandleAggregate_FailureRecorded(t *testing.T) {
	srv := testServer(t)
	root, out := t.TempDir(), t.TempDir()
	writeArtifact(t, root, "a/target.zip", "file,line\nx.c,1\n")
	writeArtifact(t, root, "b/target.zip", "file,severity\ny.c,HIGH\n")

	_, _, err := srv.handleAggregate(context.Background(), nil, aggregateInput{
		Root:            root,
		Out:             out,
		Analyzer:        "infer",
		AnalyzerVersion: "1.0.0",
	})
	if !errors.Is(err, aggregate.ErrHeaderMismatch) {
		t.Fatalf("err = %v, want ErrHeaderMismatch", err)
	}

	_, last, err := srv.handleLastRun(context.Background(), nil, lastRunInput{})
	if err != nil {
		t.Fatalf("handleLastRun: %v", err)
	}
	if !last.Found || last.Run.Status != store.StatusFailed {
		t.Errorf("expected failed run in ledger, got %+v", last.Run)
	}
}

func TestHandleAggregate_RejectsConcurrentRun(t *testing.T) {
	srv := testServer(t)
	srv.mu.Lock()
	srv.running = true
	srv.mu.Unlock()

	_, _, err := srv.handleAggregate(context.Background(), nil, aggregateInput{
		Root: t.TempDir(), Out: t.TempDir(), Analyzer: "infer", AnalyzerVersion: "1.0.0",
	})
	if err == nil {
		t.Fatal("expected rejection while another run is active")
	}
}

func TestHandleLastRun_EmptyLedger(t *testing.T) {
	srv := testServer(t)
	_, got, err := srv.handleLastRun(context.Background(), nil, lastRunInput{})
	if err != nil {
		t.Fatalf("handleLastRun: %v", err)
	}
	if got.Found || got.Run != nil {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestHandleListRuns_NewestFirstWithLimit(t *testing.T) {
	srv := testServer(t)
	root := t.TempDir()
	writeArtifact(t, root, "a/target.zip", "file,line\nx.c,1\n")

	for i := 0; i < 3; i++ {
		_, _, err := srv.handleAggregate(context.Background(), nil, aggregateInput{
			Root:            root,
			Out:             t.TempDir(),
			Analyzer:        "infer",
			AnalyzerVersion: "1.0.0",
		})
		if err != nil {
			t.Fatalf("handleAggregate: %v", err)
		}
	}

	_, got, err := srv.handleListRuns(context.Background(), nil, listRunsInput{Limit: 2})
	if err != nil {
		t.Fatalf("handleListRuns: %v", err)
	}
	if len(got.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(got.Runs))
	}
	if got.Runs[0].ID <= got.Runs[1].ID {
		t.Errorf("expected newest first, got ids %d, %d", got.Runs[0].ID, got.Runs[1].ID)
	}
}
