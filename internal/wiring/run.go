// Package wiring composes one full aggregation: engine run, output
// persistence, and ledger record.
package wiring

import (
	"context"

	"tally/internal/aggregate"
	"tally/internal/logging"
	"tally/internal/persist"
	"tally/internal/store"
)

// RunOutput bundles what one aggregation produced.
type RunOutput struct {
	Result *aggregate.Result
	Paths  persist.Paths
	// RunID is the ledger row for this run; 0 when no ledger was
	// attached.
	RunID int64
}

// Run executes the full flow: aggregate artifacts under cfg.Root,
// persist the outputs to cfg.OutDir, and record the run in st. A nil
// st skips the ledger. Failed runs are recorded too, carrying the
// failure diagnostic, so the history shows aborted aggregations.
func Run(ctx context.Context, cfg aggregate.Config, st store.Store) (*RunOutput, error) {
	started := store.NowUTC()

	agg, err := aggregate.New(cfg)
	if err != nil {
		return nil, err
	}
	cfg = agg.Config() // normalized copy

	res, err := agg.Run(ctx)
	if err != nil {
		recordFailure(st, cfg, started, err)
		return nil, err
	}

	paths, err := persist.Write(res, cfg.Policy, cfg.OutDir)
	if err != nil {
		recordFailure(st, cfg, started, err)
		return nil, err
	}

	out := &RunOutput{Result: res, Paths: paths}
	if st != nil {
		id, err := st.RecordRun(runRecord(cfg, res, started))
		if err != nil {
			// Outputs are already on disk; a ledger hiccup must not
			// undo the run.
			logging.New("wiring").Warn("ledger record failed", "error", err)
		} else {
			out.RunID = id
		}
	}
	return out, nil
}

func runRecord(cfg aggregate.Config, res *aggregate.Result, started string) *store.Run {
	return &store.Run{
		StartedAt:     started,
		FinishedAt:    store.NowUTC(),
		Root:          cfg.Root,
		OutDir:        cfg.OutDir,
		Analyzer:      cfg.Signature.Analyzer,
		Version:       cfg.Signature.Version,
		Scanned:       res.Counts.Scanned,
		Accepted:      res.Counts.Accepted,
		NoAnalysis:    res.Counts.NoAnalysis,
		Corrupt:       res.Counts.Corrupt,
		Mismatched:    res.Counts.Mismatched,
		ReportRows:    len(res.Rows),
		DuplicateRows: res.Counts.DuplicateRows,
		Status:        store.StatusOK,
	}
}

func recordFailure(st store.Store, cfg aggregate.Config, started string, runErr error) {
	if st == nil {
		return
	}
	r := &store.Run{
		StartedAt:  started,
		FinishedAt: store.NowUTC(),
		Root:       cfg.Root,
		OutDir:     cfg.OutDir,
		Analyzer:   cfg.Signature.Analyzer,
		Version:    cfg.Signature.Version,
		Status:     store.StatusFailed,
		Error:      runErr.Error(),
	}
	if _, err := st.RecordRun(r); err != nil {
		logging.New("wiring").Warn("ledger record failed", "error", err)
	}
}
