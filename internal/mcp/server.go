// Package mcp exposes the aggregation engine to MCP clients over
// stdio: run an aggregation, fetch the last run, list run history.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/aggregate"
	"tally/internal/store"
	"tally/internal/wiring"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and serializes aggregation runs.
type Server struct {
	MCPServer *sdkmcp.Server
	// DBPath is the run-ledger location; every tool call opens it
	// fresh so the server holds no long-lived SQLite handle.
	DBPath string

	mu      sync.Mutex
	running bool
}

// NewServer creates an MCP server with the aggregation tools
// registered. dbPath "" falls back to the default ledger location.
func NewServer(dbPath string) *Server {
	if dbPath == "" {
		dbPath = store.DefaultDBPath
	}
	s := &Server{DBPath: dbPath}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "tally", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "aggregate_results",
		Description: "Aggregate per-target analysis artifacts under a build tree: merge defect reports, fold statistics, write report.csv, stats.json and summary.txt.",
	}, s.handleAggregate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "last_run",
		Description: "Fetch the most recent aggregation run from the ledger, including artifact dispositions and output paths.",
	}, s.handleLastRun)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_runs",
		Description: "List recorded aggregation runs, newest first.",
	}, s.handleListRuns)
}

// --- Tool input/output types ---

type aggregateInput struct {
	Root            string `json:"root" jsonschema:"build output tree to scan for analysis artifacts"`
	Out             string `json:"out" jsonschema:"directory receiving report.csv, stats.json and summary.txt"`
	Analyzer        string `json:"analyzer" jsonschema:"expected analyzer identity"`
	AnalyzerVersion string `json:"analyzer_version" jsonschema:"expected analyzer version"`
	Policy          string `json:"policy,omitempty" jsonschema:"optional YAML accumulation policy file"`
	Workers         int    `json:"workers,omitempty" jsonschema:"parallel artifact readers (default 1 = serial)"`
}

type aggregateOutput struct {
	RunID         int64  `json:"run_id,omitempty"`
	ReportPath    string `json:"report_path"`
	StatsPath     string `json:"stats_path"`
	SummaryPath   string `json:"summary_path"`
	Scanned       int    `json:"scanned"`
	Accepted      int    `json:"accepted"`
	NoAnalysis    int    `json:"no_analysis"`
	Corrupt       int    `json:"corrupt"`
	Mismatched    int    `json:"mismatched"`
	ReportRows    int    `json:"report_rows"`
	DuplicateRows int    `json:"duplicate_rows"`
}

type lastRunInput struct{}

type runInfo struct {
	ID            int64  `json:"id"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	Root          string `json:"root"`
	OutDir        string `json:"out_dir"`
	Analyzer      string `json:"analyzer"`
	Version       string `json:"version"`
	Scanned       int    `json:"scanned"`
	Accepted      int    `json:"accepted"`
	NoAnalysis    int    `json:"no_analysis"`
	Corrupt       int    `json:"corrupt"`
	Mismatched    int    `json:"mismatched"`
	ReportRows    int    `json:"report_rows"`
	DuplicateRows int    `json:"duplicate_rows"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

type lastRunOutput struct {
	Found bool     `json:"found"`
	Run   *runInfo `json:"run,omitempty"`
}

type listRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max runs to return, newest first (0 = all)"`
}

type listRunsOutput struct {
	Runs []runInfo `json:"runs"`
}

// --- Handlers ---

func (s *Server) handleAggregate(ctx context.Context, _ *sdkmcp.CallToolRequest, input aggregateInput) (*sdkmcp.CallToolResult, aggregateOutput, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, aggregateOutput{}, fmt.Errorf("an aggregation is already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	cfg := aggregate.Config{
		Root:      input.Root,
		OutDir:    input.Out,
		Signature: aggregate.Signature{Analyzer: input.Analyzer, Version: input.AnalyzerVersion},
		Workers:   input.Workers,
	}
	if input.Policy != "" {
		pol, err := aggregate.LoadPolicy(input.Policy)
		if err != nil {
			return nil, aggregateOutput{}, err
		}
		cfg.Policy = pol
	}

	st, err := store.Open(s.DBPath)
	if err != nil {
		return nil, aggregateOutput{}, fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()

	out, err := wiring.Run(ctx, cfg, st)
	if err != nil {
		return nil, aggregateOutput{}, err
	}

	c := out.Result.Counts
	return nil, aggregateOutput{
		RunID:         out.RunID,
		ReportPath:    out.Paths.Report,
		StatsPath:     out.Paths.Stats,
		SummaryPath:   out.Paths.Summary,
		Scanned:       c.Scanned,
		Accepted:      c.Accepted,
		NoAnalysis:    c.NoAnalysis,
		Corrupt:       c.Corrupt,
		Mismatched:    c.Mismatched,
		ReportRows:    len(out.Result.Rows),
		DuplicateRows: c.DuplicateRows,
	}, nil
}

func (s *Server) handleLastRun(_ context.Context, _ *sdkmcp.CallToolRequest, _ lastRunInput) (*sdkmcp.CallToolResult, lastRunOutput, error) {
	st, err := store.Open(s.DBPath)
	if err != nil {
		return nil, lastRunOutput{}, fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()

	r, err := st.LastRun()
	if err != nil {
		return nil, lastRunOutput{}, err
	}
	if r == nil {
		return nil, lastRunOutput{Found: false}, nil
	}
	info := toRunInfo(r)
	return nil, lastRunOutput{Found: true, Run: &info}, nil
}

func (s *Server) handleListRuns(_ context.Context, _ *sdkmcp.CallToolRequest, input listRunsInput) (*sdkmcp.CallToolResult, listRunsOutput, error) {
	st, err := store.Open(s.DBPath)
	if err != nil {
		return nil, listRunsOutput{}, fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(input.Limit)
	if err != nil {
		return nil, listRunsOutput{}, err
	}
	out := listRunsOutput{Runs: make([]runInfo, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, toRunInfo(r))
	}
	return nil, out, nil
}

func toRunInfo(r *store.Run) runInfo {
	return runInfo{
		ID:            r.ID,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Root:          r.Root,
		OutDir:        r.OutDir,
		Analyzer:      r.Analyzer,
		Version:       r.Version,
		Scanned:       r.Scanned,
		Accepted:      r.Accepted,
		NoAnalysis:    r.NoAnalysis,
		Corrupt:       r.Corrupt,
		Mismatched:    r.Mismatched,
		ReportRows:    r.ReportRows,
		DuplicateRows: r.DuplicateRows,
		Status:        r.Status,
		Error:         r.Error,
	}
}
