package aggregate

import (
	"fmt"
	"slices"
	"strings"
)

// rowSep joins cells into a dedup key. Cells are free text but never
// contain control characters in practice.
const rowSep = "\x1f"

// Table merges tabular report rows across artifacts under a single
// authoritative header. Exact-duplicate rows are dropped; surviving
// rows keep first-seen order, so the merged report is deterministic
// for a fixed artifact order.
type Table struct {
	header []string
	rows   [][]string
	seen   map[string]struct{}
	dupes  int
}

func NewTable() *Table {
	return &Table{seen: map[string]struct{}{}}
}

// Append merges one artifact's report. The first row is that
// artifact's header: the first header seen becomes authoritative, and
// any later artifact disagreeing with it fails with
// ErrHeaderMismatch.
func (t *Table) Append(path string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	header, data := rows[0], rows[1:]
	if t.header == nil {
		t.header = header
	} else if !slices.Equal(t.header, header) {
		return fmt.Errorf("%w: %s declares %v, expected %v", ErrHeaderMismatch, path, header, t.header)
	}
	for _, row := range data {
		key := strings.Join(row, rowSep)
		if _, dup := t.seen[key]; dup {
			t.dupes++
			continue
		}
		t.seen[key] = struct{}{}
		t.rows = append(t.rows, row)
	}
	return nil
}

// Header returns the authoritative header, or nil if no artifact has
// contributed one.
func (t *Table) Header() []string { return t.header }

// Rows returns the merged rows in first-seen order, header excluded.
func (t *Table) Rows() [][]string { return t.rows }

// Dupes returns how many exact-duplicate rows were dropped.
func (t *Table) Dupes() int { return t.dupes }
