package persist

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tally/internal/aggregate"
	"tally/internal/format"
)

// Metrics with this suffix are phase timings in seconds; the summary
// lists them apart from the plain totals.
const timingSuffix = "_time"

// RenderSummary renders the human-readable block appended to
// summary.txt after each run. Output is deterministic: metric keys
// are sorted.
func RenderSummary(res *aggregate.Result, pol *aggregate.Policy, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== aggregation %s ===\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "analyzer:  %s\n", res.Signature)
	fmt.Fprintf(&b, "elapsed:   %s\n", format.FmtDuration(res.Elapsed))
	c := res.Counts
	fmt.Fprintf(&b, "artifacts: %d scanned, %d accepted, %d without analysis, %d corrupt, %d stale\n",
		c.Scanned, c.Accepted, c.NoAnalysis, c.Corrupt, c.Mismatched)
	fmt.Fprintf(&b, "report:    %s rows (%s duplicates dropped)\n",
		format.FmtCount(int64(len(res.Rows))), format.FmtCount(int64(c.DuplicateRows)))

	timings, metrics := splitMetrics(res.Totals.Int, pol)
	if len(timings) > 0 {
		b.WriteString("\ntimings:\n")
		for _, k := range timings {
			fmt.Fprintf(&b, "  %-28s %ss\n", k, format.FmtCount(res.Totals.Int[k]))
		}
	}
	if len(metrics) > 0 {
		b.WriteString("\ntotals:\n")
		tb := format.NewTable(format.ASCII)
		tb.Header("metric", "total")
		tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
		for _, k := range metrics {
			tb.Row(k, format.FmtCount(res.Totals.Int[k]))
		}
		b.WriteString(tb.String())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// splitMetrics partitions finalized metrics into phase timings and
// plain totals, dropping keys the policy marks as bookkeeping.
func splitMetrics(totals map[string]int64, pol *aggregate.Policy) (timings, metrics []string) {
	for k := range totals {
		if pol.SummarySkips(k) {
			continue
		}
		if strings.HasSuffix(k, timingSuffix) {
			timings = append(timings, k)
		} else {
			metrics = append(metrics, k)
		}
	}
	sort.Strings(timings)
	sort.Strings(metrics)
	return timings, metrics
}
