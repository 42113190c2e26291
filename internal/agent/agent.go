// Package agent implements the uniform agent contract and its three
// heterogeneous provider-backed variants (Claude, Codex-CLI, Gemini-CLI).
package agent

import (
	"context"
	"sync"

	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/history"
	"github.com/kandev/hivemind/internal/sanitize"
)

// Agent is the capability set every provider variant implements.
type Agent interface {
	// Connect establishes (or simulates, for CLI agents) a session. resumeID
	// may be empty. Connect failures are isolated to this agent by the
	// manager and must not panic.
	Connect(ctx context.Context, resumeID string) error

	// Send runs one turn, streaming normalized events on the returned
	// channel. The channel is closed when the turn ends (after a result or
	// error event has been sent).
	Send(ctx context.Context, message string) (<-chan events.Event, error)

	// Interrupt cooperatively cancels an in-flight turn. It returns whether
	// interruption is supported and was attempted.
	Interrupt() bool

	// Disconnect releases provider resources with a bounded timeout and
	// returns the final session token (possibly empty).
	Disconnect(ctx context.Context) string

	GetSessionID() string
	Role() Role
}

// base implements the shared, non-overridable behavior every variant
// composes via struct embedding: history, sanitization, and a per-agent
// serializing lock over Send. This is the idiomatic Go substitute for the
// spec's "shared trait without inheritance."
type base struct {
	role Role

	mu        sync.Mutex // serializes Send for this agent; one turn at a time
	sessionMu sync.Mutex
	sessionID string

	connected bool

	journal        *history.Journal
	pendingPreamble string
	preambleMu      sync.Mutex

	log *logger.Logger
}

func newBase(role Role, journal *history.Journal, log *logger.Logger) base {
	return base{role: role, journal: journal, log: log}
}

func (b *base) Role() Role { return b.role }

func (b *base) GetSessionID() string {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()
	return b.sessionID
}

func (b *base) setSessionID(id string) {
	if id == "" {
		return
	}
	b.sessionMu.Lock()
	b.sessionID = id
	b.sessionMu.Unlock()
}

// queueContextRestore loads history and, if any exists, stashes a preamble
// to be consumed exactly once by the next Send.
func (b *base) queueContextRestore() {
	if b.journal == nil {
		return
	}
	preamble, ok := b.journal.BuildContextRestore(20)
	if !ok {
		return
	}
	b.preambleMu.Lock()
	b.pendingPreamble = preamble
	b.preambleMu.Unlock()
}

// takePreamble returns and clears the pending preamble, atomically.
func (b *base) takePreamble() (string, bool) {
	b.preambleMu.Lock()
	defer b.preambleMu.Unlock()
	p := b.pendingPreamble
	b.pendingPreamble = ""
	return p, p != ""
}

func (b *base) appendUserHistory(content string) {
	if b.journal != nil {
		b.journal.Append("user", content)
	}
}

func (b *base) appendAssistantHistory(content string) {
	cleaned := sanitize.StripRoleMarkers(content)
	if cleaned == "" {
		return
	}
	if b.journal != nil {
		b.journal.Append("assistant", cleaned)
	}
}

// composePrompt sanitizes message and, if a context-restore preamble is
// pending, prepends it delimited by a horizontal rule, per SPEC_FULL.md §4.5.
func (b *base) composePrompt(message string) string {
	clean := sanitize.SanitizeText(message)
	if preamble, ok := b.takePreamble(); ok {
		return preamble + "\n\n---\n\n" + clean
	}
	return clean
}
