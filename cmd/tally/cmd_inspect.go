package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"tally/internal/artifact"
	"tally/internal/format"
)

var inspectFlags struct {
	statsEntry  string
	reportEntry string
	markdown    bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "Show the analysis payload of one artifact archive",
	Long: `Open a single per-target artifact and print its statistics and defect
report without aggregating. Useful for checking what one build target
contributed, or why an artifact was skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.statsEntry, "stats-entry", artifact.DefaultStatsEntry, "Stats entry name inside the archive")
	f.StringVar(&inspectFlags.reportEntry, "report-entry", artifact.DefaultReportEntry, "Report entry name inside the archive")
	f.BoolVar(&inspectFlags.markdown, "markdown", false, "Render tables as Markdown")
}

func runInspect(cmd *cobra.Command, args []string) error {
	res := artifact.NewReader(inspectFlags.statsEntry, inspectFlags.reportEntry).Read(args[0])
	w := cmd.OutOrStdout()

	switch res.Outcome {
	case artifact.OutcomeCorrupt:
		return fmt.Errorf("corrupt artifact %s: %w", args[0], res.Err)
	case artifact.OutcomeNoAnalysis:
		fmt.Fprintf(w, "%s: no analysis output\n", args[0])
		return nil
	}

	mode := format.ASCII
	if inspectFlags.markdown {
		mode = format.Markdown
	}

	fmt.Fprintf(w, "artifact: %s\n", args[0])
	fmt.Fprintf(w, "analyzer: %s@%s\n\n", res.Stats.Analyzer(), res.Stats.Version())

	tb := format.NewTable(mode)
	tb.Header("metric", "value")
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	for _, k := range sortedKeys(res.Stats.Int) {
		tb.Row(k, format.FmtCount(res.Stats.Int[k]))
	}
	for _, k := range sortedKeys(res.Stats.Float) {
		tb.Row(k, fmt.Sprintf("%.2f", res.Stats.Float[k]))
	}
	fmt.Fprintln(w, tb.String())

	if len(res.Rows) > 1 {
		rt := format.NewTable(mode)
		rt.Header(res.Rows[0]...)
		for _, row := range res.Rows[1:] {
			vals := make([]any, len(row))
			for i, cell := range row {
				vals[i] = cell
			}
			rt.Row(vals...)
		}
		fmt.Fprintln(w, rt.String())
	}
	fmt.Fprintf(w, "%d report row(s)\n", len(res.Rows)-1)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
