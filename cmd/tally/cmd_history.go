package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/format"
	"tally/internal/store"
)

var historyFlags struct {
	dbPath   string
	limit    int
	markdown bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded aggregation runs",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.dbPath, "db", store.DefaultDBPath, "Run ledger DB path")
	f.IntVar(&historyFlags.limit, "limit", 20, "Max runs to show, newest first (0 = all)")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "Render as Markdown")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(historyFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(historyFlags.limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}

	mode := format.ASCII
	if historyFlags.markdown {
		mode = format.Markdown
	}
	tb := format.NewTable(mode)
	tb.Header("id", "finished", "analyzer", "accepted", "rows", "status")
	tb.Columns(
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
	)
	for _, r := range runs {
		status := r.Status
		if r.Status == store.StatusFailed && r.Error != "" {
			status = "failed: " + format.Truncate(r.Error, 40)
		}
		tb.Row(r.ID, r.FinishedAt, r.Analyzer+"@"+r.Version,
			fmt.Sprintf("%d/%d", r.Accepted, r.Scanned),
			format.FmtCount(int64(r.ReportRows)), status)
	}
	fmt.Fprintln(w, tb.String())
	return nil
}
