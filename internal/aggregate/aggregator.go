package aggregate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/artifact"
	"tally/internal/logging"
)

// Counts tracks how the run disposed of each scanned artifact.
type Counts struct {
	Scanned    int
	Accepted   int
	NoAnalysis int
	Corrupt    int
	Mismatched int
	// DuplicateRows counts report rows dropped as exact duplicates of
	// rows already merged.
	DuplicateRows int
}

// Result is the finalized output of one aggregation run.
type Result struct {
	Signature Signature
	Totals    *Totals
	Header    []string
	Rows      [][]string
	Counts    Counts
	Elapsed   time.Duration
}

// Aggregator runs one aggregation: locate artifacts under the root,
// read them, gate on the expected signature, fold statistics and
// merge report rows in scan order.
type Aggregator struct {
	cfg    Config
	reader *artifact.Reader
	log    *slog.Logger
}

// New validates cfg and returns a ready Aggregator.
func New(cfg Config) (*Aggregator, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &Aggregator{
		cfg:    cfg,
		reader: artifact.NewReader(cfg.StatsEntry, cfg.ReportEntry),
		log:    logging.New("aggregate"),
	}, nil
}

// Config returns the normalized configuration this Aggregator runs
// with.
func (a *Aggregator) Config() Config { return a.cfg }

// Run executes the aggregation. Corrupt and signature-mismatched
// artifacts are skipped; a header conflict between accepted artifacts
// aborts the run with ErrHeaderMismatch and no Result.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	paths, err := artifact.Scan(a.cfg.Root, a.cfg.ArtifactExt)
	if err != nil {
		return nil, err
	}
	a.log.Info("scan complete", "root", a.cfg.Root, "artifacts", len(paths))

	reads, err := a.readAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	totals := NewTotals()
	table := NewTable()
	counts := Counts{Scanned: len(paths)}

	for _, rr := range reads {
		switch rr.Outcome {
		case artifact.OutcomeCorrupt:
			counts.Corrupt++
			a.log.Warn("skipping corrupt artifact", "path", rr.Path, "error", rr.Err)
			continue
		case artifact.OutcomeNoAnalysis:
			counts.NoAnalysis++
			a.log.Debug("no analysis output", "path", rr.Path)
			continue
		}
		if !a.cfg.Signature.Matches(rr.Stats) {
			counts.Mismatched++
			a.log.Debug("signature mismatch",
				"path", rr.Path,
				"got", rr.Stats.Analyzer()+"@"+rr.Stats.Version(),
				"want", a.cfg.Signature.String())
			continue
		}
		if err := table.Append(rr.Path, rr.Rows); err != nil {
			return nil, err
		}
		totals.Fold(rr.Stats, a.cfg.Policy)
		counts.Accepted++
	}

	totals.Finalize()
	counts.DuplicateRows = table.Dupes()

	a.log.Info("aggregation complete",
		"accepted", counts.Accepted,
		"no_analysis", counts.NoAnalysis,
		"corrupt", counts.Corrupt,
		"mismatched", counts.Mismatched,
		"rows", len(table.Rows()),
		"duplicates", counts.DuplicateRows)

	return &Result{
		Signature: a.cfg.Signature,
		Totals:    totals,
		Header:    table.Header(),
		Rows:      table.Rows(),
		Counts:    counts,
		Elapsed:   time.Since(start),
	}, nil
}

// readAll reads every artifact, sequentially or through a bounded
// worker pool. Results land in a slice indexed by scan position, so
// worker completion order never changes fold order downstream.
func (a *Aggregator) readAll(ctx context.Context, paths []string) ([]artifact.ReadResult, error) {
	results := make([]artifact.ReadResult, len(paths))

	if a.cfg.Workers < 2 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = a.reader.Read(path)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.reader.Read(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
