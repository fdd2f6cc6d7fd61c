package aggregate

import (
	"errors"

	"tally/internal/artifact"
)

// Config carries everything one aggregation run needs. The engine
// reads no ambient state: root, output directory, and expected
// signature always come from the caller.
type Config struct {
	// Root is the build output tree to scan for artifacts.
	Root string
	// OutDir receives report.csv, stats.json and summary.txt.
	OutDir string
	// Signature is the analyzer identity every artifact must match.
	Signature Signature
	// Policy controls metric accumulation; nil means DefaultPolicy.
	Policy *Policy

	// ArtifactExt, StatsEntry and ReportEntry override the packaging
	// conventions; empty fields keep the defaults.
	ArtifactExt string
	StatsEntry  string
	ReportEntry string

	// Workers bounds concurrent artifact reads. Values below 2 read
	// sequentially.
	Workers int
}

// Normalize validates required fields and fills defaults in place.
func (c *Config) Normalize() error {
	if c.Root == "" {
		return errors.New("config: artifact root is required")
	}
	if c.OutDir == "" {
		return errors.New("config: output directory is required")
	}
	if c.Signature.Analyzer == "" || c.Signature.Version == "" {
		return errors.New("config: analyzer signature is required")
	}
	if c.Policy == nil {
		c.Policy = DefaultPolicy()
	}
	if c.ArtifactExt == "" {
		c.ArtifactExt = artifact.DefaultExt
	}
	if c.StatsEntry == "" {
		c.StatsEntry = artifact.DefaultStatsEntry
	}
	if c.ReportEntry == "" {
		c.ReportEntry = artifact.DefaultReportEntry
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
