package main

import (
	"context"

	"github.com/spf13/cobra"

	"tally/internal/logging"
	mcpserver "tally/internal/mcp"
	"tally/internal/store"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveFlags struct {
	dbPath string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the aggregation tools
(aggregate_results, last_run, list_runs) to MCP clients.

The server monitors for parent process death. When the client
disconnects, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.dbPath, "db", store.DefaultDBPath, "Run ledger DB path")
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := mcpserver.NewServer(serveFlags.dbPath)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting tally MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
