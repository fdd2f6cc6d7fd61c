package store

// DefaultDBPath is the default relative path for the SQLite run
// ledger. Resolve against cwd; Open() creates the parent dir.
const DefaultDBPath = ".tally/tally.db"

// Run statuses recorded in the ledger.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded aggregation run: where it read from, where it
// wrote, what signature it enforced, and how the artifacts were
// disposed of.
type Run struct {
	ID         int64
	StartedAt  string
	FinishedAt string
	Root       string
	OutDir     string
	Analyzer   string
	Version    string

	Scanned       int
	Accepted      int
	NoAnalysis    int
	Corrupt       int
	Mismatched    int
	ReportRows    int
	DuplicateRows int

	// Status is StatusOK or StatusFailed; Error carries the failure
	// diagnostic for failed runs.
	Status string
	Error  string
}

// Store is the run-ledger facade. CLI and MCP surfaces use only this
// interface; implementation is SQLite or in-memory.
type Store interface {
	// RecordRun appends a finished run and returns its ID.
	RecordRun(r *Run) (int64, error)
	// GetRun fetches one run by ID; nil if absent.
	GetRun(id int64) (*Run, error)
	// LastRun fetches the most recent run; nil if the ledger is empty.
	LastRun() (*Run, error)
	// ListRuns fetches up to limit runs, newest first. limit <= 0
	// means no limit.
	ListRuns(limit int) ([]*Run, error)
	Close() error
}
