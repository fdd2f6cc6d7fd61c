package mcp

import (
	"context"
	"os"
	"time"

	"tally/internal/logging"
)

// WatchParent monitors for parent process death in a background
// goroutine. When the parent PID changes (the MCP client disconnected
// or restarted), it calls cancelFn so the server shuts down instead
// of lingering as a zombie.
//
// This must NOT read from stdin: the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes here would corrupt the JSON-RPC
// stream.
//
// The goroutine exits when ctx is canceled or parent death is
// detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	log := logging.New("mcp")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					log.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
