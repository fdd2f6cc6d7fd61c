package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/aggregate"
	"tally/internal/artifact"
	"tally/internal/store"
	"tally/internal/wiring"
)

var aggregateFlags struct {
	root        string
	out         string
	analyzer    string
	version     string
	policyPath  string
	ext         string
	statsEntry  string
	reportEntry string
	workers     int
	dbPath      string
	noLedger    bool
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [root]",
	Short: "Merge per-target analysis artifacts into combined results",
	Long: `Scan a build output tree for per-target analysis artifacts, fold their
statistics into run totals, merge their defect reports under one header,
and write report.csv, stats.json and summary.txt.

Artifacts that are corrupt, carry no analysis output, or were produced
by a different analyzer configuration are skipped. A report header
conflict between accepted artifacts aborts the run and writes nothing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&aggregateFlags.root, "root", "", "Build output tree to scan")
	f.StringVarP(&aggregateFlags.out, "out", "o", "", "Output directory (required)")
	f.StringVar(&aggregateFlags.analyzer, "analyzer", "", "Expected analyzer identity (required)")
	f.StringVar(&aggregateFlags.version, "analyzer-version", "", "Expected analyzer version (required)")
	f.StringVar(&aggregateFlags.policyPath, "policy", "", "YAML accumulation policy file")
	f.StringVar(&aggregateFlags.ext, "ext", artifact.DefaultExt, "Artifact file extension")
	f.StringVar(&aggregateFlags.statsEntry, "stats-entry", artifact.DefaultStatsEntry, "Stats entry name inside each archive")
	f.StringVar(&aggregateFlags.reportEntry, "report-entry", artifact.DefaultReportEntry, "Report entry name inside each archive")
	f.IntVar(&aggregateFlags.workers, "workers", 1, "Parallel artifact readers")
	f.StringVar(&aggregateFlags.dbPath, "db", store.DefaultDBPath, "Run ledger DB path")
	f.BoolVar(&aggregateFlags.noLedger, "no-ledger", false, "Skip recording the run in the ledger")

	_ = aggregateCmd.MarkFlagRequired("out")
	_ = aggregateCmd.MarkFlagRequired("analyzer")
	_ = aggregateCmd.MarkFlagRequired("analyzer-version")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	root := aggregateFlags.root
	if root == "" && len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("artifact root required (positional or --root)")
	}

	cfg := aggregate.Config{
		Root:        root,
		OutDir:      aggregateFlags.out,
		Signature:   aggregate.Signature{Analyzer: aggregateFlags.analyzer, Version: aggregateFlags.version},
		ArtifactExt: aggregateFlags.ext,
		StatsEntry:  aggregateFlags.statsEntry,
		ReportEntry: aggregateFlags.reportEntry,
		Workers:     aggregateFlags.workers,
	}
	if aggregateFlags.policyPath != "" {
		pol, err := aggregate.LoadPolicy(aggregateFlags.policyPath)
		if err != nil {
			return err
		}
		cfg.Policy = pol
	}

	var st store.Store
	if !aggregateFlags.noLedger {
		s, err := store.Open(aggregateFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer s.Close()
		st = s
	}

	out, err := wiring.Run(cmd.Context(), cfg, st)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	c := out.Result.Counts
	fmt.Fprintf(w, "Aggregated %d of %d artifact(s): %d without analysis, %d corrupt, %d stale\n",
		c.Accepted, c.Scanned, c.NoAnalysis, c.Corrupt, c.Mismatched)
	fmt.Fprintf(w, "Report:  %s (%d rows, %d duplicates dropped)\n",
		out.Paths.Report, len(out.Result.Rows), c.DuplicateRows)
	fmt.Fprintf(w, "Stats:   %s\n", out.Paths.Stats)
	fmt.Fprintf(w, "Summary: %s\n", out.Paths.Summary)
	if out.RunID != 0 {
		fmt.Fprintf(w, "Ledger:  run #%d\n", out.RunID)
	}
	return nil
}
