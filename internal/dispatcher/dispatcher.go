// Package dispatcher implements the concurrent IPC command loop: Run blocks
// reading newline-delimited JSON commands from stdin on its own goroutine
// and hands each send/broadcast off to a separate goroutine so a slow turn
// on one pane never blocks reading (or processing) a command for another
// pane.
package dispatcher

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/manager"
)

// Command is one line of the inbound control protocol.
type Command struct {
	Cmd     string   `json:"command"`
	PaneID  string   `json:"pane_id"`
	Message string   `json:"message"`
	Exclude []string `json:"exclude"`
}

const shutdownGrace = 30 * time.Second

// Dispatcher reads Commands from an input stream and routes them to a
// Manager. synchronous commands (restart, interrupt, get_sessions, ping,
// stop) are awaited before the next line is read; send/broadcast are fired
// into their own goroutine so long-running turns overlap.
type Dispatcher struct {
	mgr    *manager.Manager
	writer *events.Writer
	log    *logger.Logger

	wg      sync.WaitGroup
	pending atomic.Int64 // in-flight send/broadcast turns, for stop's pending_count
}

func New(mgr *manager.Manager, writer *events.Writer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{mgr: mgr, writer: writer, log: log}
}

// Run starts the agents, emits ready, and blocks reading commands from in
// until in is closed (or fails to read, which is reported as an error
// event) or a "stop" command is received. Cancelling ctx cancels in-flight
// turns but does not interrupt a read that is blocked on in. Run returns
// once shutdown has completed (agents disconnected, sessions saved).
func (d *Dispatcher) Run(ctx context.Context, in io.Reader) {
	d.mgr.Start(ctx)
	d.mgr.Ready()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cmd Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			d.writer.EmitRaw(events.ErrWithType(fmt.Sprintf("invalid command line: %v", err), "protocol"))
			continue
		}

		if cmd.Cmd == "stop" {
			break
		}
		d.dispatch(ctx, cmd)
	}
	if err := scanner.Err(); err != nil {
		d.writer.EmitRaw(events.ErrWithType(fmt.Sprintf("command read failed: %v", err), "protocol"))
	}

	d.shutdown(ctx)
}

// dispatch routes one command. send/broadcast run in their own goroutine so
// the read loop is never blocked on a turn; everything else is synchronous
// and cheap enough not to need one.
func (d *Dispatcher) dispatch(ctx context.Context, cmd Command) {
	switch cmd.Cmd {
	case "send":
		if cmd.PaneID == "" || cmd.Message == "" {
			d.writer.EmitRaw(events.Err("send requires pane_id and message"))
			return
		}
		d.wg.Add(1)
		d.pending.Add(1)
		go func() {
			defer d.wg.Done()
			defer d.pending.Add(-1)
			d.mgr.SendMessage(ctx, cmd.PaneID, cmd.Message)
		}()
	case "broadcast":
		if cmd.Message == "" {
			d.writer.EmitRaw(events.Err("broadcast requires message"))
			return
		}
		exclude := make(map[string]bool, len(cmd.Exclude))
		for _, id := range cmd.Exclude {
			exclude[id] = true
		}
		d.wg.Add(1)
		d.pending.Add(1)
		go func() {
			defer d.wg.Done()
			defer d.pending.Add(-1)
			d.mgr.Broadcast(ctx, cmd.Message, exclude)
		}()
	case "restart":
		d.mgr.RestartAgent(ctx, cmd.PaneID)
	case "interrupt":
		d.mgr.InterruptAgent(ctx, cmd.PaneID)
	case "get_sessions":
		d.mgr.GetSessions()
	case "ping":
		d.mgr.Ready()
	default:
		d.writer.EmitRaw(events.Err(fmt.Sprintf("Unknown command: %s", cmd.Cmd)))
	}
}

// shutdown waits up to shutdownGrace for in-flight send/broadcast goroutines
// to drain before forcing agent disconnect regardless. If turns are still
// outstanding when the bound elapses, a warning carrying the residual count
// is emitted to the host before all_stopped.
func (d *Dispatcher) shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		count := int(d.pending.Load())
		if d.log != nil {
			d.log.Warn("shutdown: in-flight turns did not drain within grace period")
		}
		d.writer.EmitRaw(events.Event{Type: events.TypeWarning, Message: "shutdown grace period elapsed with turns in flight", PendingCount: &count})
	}
	d.mgr.StopAll(ctx)
}
