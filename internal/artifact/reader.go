package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Default archive entry names under which per-target analysis output
// is packaged.
const (
	DefaultStatsEntry  = "analysis/stats.json"
	DefaultReportEntry = "analysis/report.csv"
)

// Reader extracts the statistics and report payloads from one
// target's artifact archive.
type Reader struct {
	StatsEntry  string
	ReportEntry string
}

// NewReader returns a Reader for the given entry names, falling back
// to the defaults for empty ones.
func NewReader(statsEntry, reportEntry string) *Reader {
	if statsEntry == "" {
		statsEntry = DefaultStatsEntry
	}
	if reportEntry == "" {
		reportEntry = DefaultReportEntry
	}
	return &Reader{StatsEntry: statsEntry, ReportEntry: reportEntry}
}

// Read opens the archive at path and extracts both payloads. A
// missing entry or an empty report classifies as OutcomeNoAnalysis;
// an unopenable archive or unparsable payload as OutcomeCorrupt.
func (r *Reader) Read(path string) ReadResult {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ReadResult{Path: path, Outcome: OutcomeCorrupt, Err: fmt.Errorf("open archive: %w", err)}
	}
	defer zr.Close()

	statsData, ok, err := readEntry(&zr.Reader, r.StatsEntry)
	if err != nil {
		return ReadResult{Path: path, Outcome: OutcomeCorrupt, Err: err}
	}
	if !ok {
		return ReadResult{Path: path, Outcome: OutcomeNoAnalysis}
	}

	reportData, ok, err := readEntry(&zr.Reader, r.ReportEntry)
	if err != nil {
		return ReadResult{Path: path, Outcome: OutcomeCorrupt, Err: err}
	}
	if !ok {
		return ReadResult{Path: path, Outcome: OutcomeNoAnalysis}
	}

	stats, err := decodeStats(statsData)
	if err != nil {
		return ReadResult{Path: path, Outcome: OutcomeCorrupt, Err: err}
	}
	rows, err := decodeReport(reportData)
	if err != nil {
		return ReadResult{Path: path, Outcome: OutcomeCorrupt, Err: err}
	}
	if len(rows) == 0 {
		return ReadResult{Path: path, Outcome: OutcomeNoAnalysis, Stats: stats}
	}
	return ReadResult{Path: path, Outcome: OutcomeOK, Stats: stats, Rows: rows}
}

// readEntry returns the named entry's contents. The boolean reports
// whether the entry exists; errors mean the entry exists but could
// not be read.
func readEntry(zr *zip.Reader, name string) ([]byte, bool, error) {
	f, err := zr.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, true, fmt.Errorf("read entry %s: %w", name, err)
	}
	return data, true, nil
}

// decodeReport parses CSV rows without enforcing a field count; the
// merge layer owns header consistency.
func decodeReport(data []byte) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse report payload: %w", err)
	}
	return rows, nil
}
