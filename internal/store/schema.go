package store

// schemaVersionV1 is the current run-ledger schema.
const schemaVersionV1 = 1

// schemaV1 holds one row per aggregation run. The ledger is
// append-only: runs are recorded once, never updated.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	root        TEXT NOT NULL,
	out_dir     TEXT NOT NULL,
	analyzer    TEXT NOT NULL,
	version     TEXT NOT NULL,
	scanned     INTEGER NOT NULL DEFAULT 0,
	accepted    INTEGER NOT NULL DEFAULT 0,
	no_analysis INTEGER NOT NULL DEFAULT 0,
	corrupt     INTEGER NOT NULL DEFAULT 0,
	mismatched  INTEGER NOT NULL DEFAULT 0,
	report_rows INTEGER NOT NULL DEFAULT 0,
	dup_rows    INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
