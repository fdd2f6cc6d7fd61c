// Package persist writes one aggregation run's outputs: the merged
// defect report, the finalized statistics, and the cumulative run
// summary.
package persist

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tally/internal/aggregate"
)

// Output file names under the run's output directory.
const (
	ReportFilename  = "report.csv"
	StatsFilename   = "stats.json"
	SummaryFilename = "summary.txt"
)

// Paths locates the three files a run produced.
type Paths struct {
	Report  string
	Stats   string
	Summary string
}

// Write persists the run's outputs under outDir, creating it if
// needed. Report and stats replace any previous content atomically;
// the summary appends so earlier runs stay visible. Persistence
// errors are fatal to the run.
func Write(res *aggregate.Result, pol *aggregate.Policy, outDir string) (Paths, error) {
	if pol == nil {
		pol = aggregate.DefaultPolicy()
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}
	p := Paths{
		Report:  filepath.Join(outDir, ReportFilename),
		Stats:   filepath.Join(outDir, StatsFilename),
		Summary: filepath.Join(outDir, SummaryFilename),
	}
	if err := writeReport(p.Report, res.Header, res.Rows); err != nil {
		return Paths{}, err
	}
	if err := writeStats(p.Stats, res.Totals); err != nil {
		return Paths{}, err
	}
	if err := appendSummary(p.Summary, RenderSummary(res, pol, time.Now())); err != nil {
		return Paths{}, err
	}
	return p, nil
}

// writeReport encodes the merged table. With no authoritative header
// the run had nothing to report and the file is left empty.
func writeReport(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	if header != nil {
		w := csv.NewWriter(&buf)
		if err := w.Write(header); err != nil {
			return fmt.Errorf("encode report header: %w", err)
		}
		if err := w.WriteAll(rows); err != nil {
			return fmt.Errorf("encode report rows: %w", err)
		}
	}
	return writeAtomic(path, buf.Bytes())
}

// statsDoc mirrors the artifact payload shape. The float section is
// gone: Finalize folds it into the integer metrics.
type statsDoc struct {
	Int  map[string]int64  `json:"int"`
	Meta map[string]string `json:"normal"`
}

func writeStats(path string, t *aggregate.Totals) error {
	data, err := json.MarshalIndent(statsDoc{Int: t.Int, Meta: t.Meta}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}

// writeAtomic writes through a temp file and rename so readers never
// observe a partial file. Falls back to a direct write where rename
// fails.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		if werr := os.WriteFile(path, data, 0644); werr != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), werr)
		}
	}
	return nil
}

func appendSummary(path, block string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open summary: %w", err)
	}
	_, werr := f.WriteString(block)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("append summary: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close summary: %w", cerr)
	}
	return nil
}
