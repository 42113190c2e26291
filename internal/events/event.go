// Package events defines the closed set of normalized outbound event shapes
// and the single-writer serialization discipline for emitting them to the
// host process over stdout.
package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Event types, see SPEC_FULL.md §3.
const (
	TypeTextDelta     = "text_delta"
	TypeThinkingDelta = "thinking_delta"
	TypeToolUse       = "tool_use"
	TypeToolResult    = "tool_result"
	TypeStatus        = "status"
	TypeResult        = "result"
	TypeError         = "error"

	TypeReady           = "ready"
	TypeAgentStarted    = "agent_started"
	TypeAgentRestarted  = "agent_restarted"
	TypeInterrupted     = "interrupted"
	TypeAllStopped      = "all_stopped"
	TypeWarning         = "warning"
	TypeSessions        = "sessions"
	TypeMessageReceived = "message_received"
)

// Status state values, see SPEC_FULL.md §3.
const (
	StatusConnected              = "connected"
	StatusThinking                = "thinking"
	StatusResponding              = "responding"
	StatusIdle                    = "idle"
	StatusDisconnected            = "disconnected"
	StatusThreadStarted           = "thread_started"
	StatusTurnStarted             = "turn_started"
	StatusTurnCompleted           = "turn_completed"
	StatusThreadExpiredRestarting = "thread_expired_restarting"
)

// Event is the normalized, flat event shape written to stdout. Only the
// fields relevant to Type are populated; the rest are omitted via
// `omitempty` so the wire payload stays minimal, mirroring the spec's
// tagged-variant description without needing a Go-side type switch on
// marshal.
type Event struct {
	Type string `json:"type"`

	// Manager-scoped tagging, added by the output writer.
	PaneID string `json:"pane_id,omitempty"`
	Role   string `json:"role,omitempty"`

	Text      string `json:"text,omitempty"`
	Thinking  string `json:"thinking,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	ToolName  string          `json:"name,omitempty"`
	ToolInput json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`

	State string `json:"state,omitempty"`

	TotalCostUSD *float64 `json:"total_cost_usd,omitempty"`
	DurationMS   *int64   `json:"duration_ms,omitempty"`
	NumTurns     *int     `json:"num_turns,omitempty"`

	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`

	Agents       []string          `json:"agents,omitempty"`
	Model        string            `json:"model,omitempty"`
	Resumed      *bool             `json:"resumed,omitempty"`
	SessionsSaved *bool            `json:"sessions_saved,omitempty"`
	Sessions     map[string]string `json:"sessions,omitempty"`
	PendingCount *int              `json:"pending_count,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

// Status builds a status{state} event.
func Status(state string) Event { return Event{Type: TypeStatus, State: state} }

// TextDelta builds a text_delta{text} event.
func TextDelta(text string) Event { return Event{Type: TypeTextDelta, Text: text} }

// ThinkingDelta builds a thinking_delta{thinking} event.
func ThinkingDelta(thinking string) Event { return Event{Type: TypeThinkingDelta, Thinking: thinking} }

// ToolUse builds a tool_use{name, input} event.
func ToolUse(name string, input json.RawMessage) Event {
	return Event{Type: TypeToolUse, ToolName: name, ToolInput: input}
}

// ToolResult builds a tool_result{content, is_error} event.
func ToolResult(content string, isError bool) Event {
	return Event{Type: TypeToolResult, Content: content, IsError: boolPtr(isError)}
}

// Result builds a result{...} end-of-turn event.
func Result(sessionID string, isError bool) Event {
	return Event{Type: TypeResult, SessionID: sessionID, IsError: boolPtr(isError)}
}

// Err builds an error{message} event.
func Err(message string) Event { return Event{Type: TypeError, Message: message} }

// ErrWithType builds an error{message, error_type} event.
func ErrWithType(message, errType string) Event {
	return Event{Type: TypeError, Message: message, ErrorType: errType}
}

// Writer serializes Events to an underlying stream as newline-delimited
// JSON, one whole line per call, guarded by a mutex so concurrent goroutines
// (one per in-flight turn) never interleave partial lines. This is the
// load-bearing difference from the spec's cooperative-scheduler target: a
// goroutine-per-turn implementation has no implicit single-writer guarantee.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Emit tags ev with paneID/role (when non-empty) and writes it as one JSON
// line, flushing immediately.
func (w *Writer) Emit(ev Event, paneID, role string) {
	if paneID != "" {
		ev.PaneID = paneID
	}
	if role != "" {
		ev.Role = role
	}
	w.write(ev)
}

// EmitRaw writes ev without pane/role tagging, for manager-level events.
func (w *Writer) EmitRaw(ev Event) {
	w.write(ev)
}

func (w *Writer) write(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		// Fallback: coerce to a minimal, always-marshalable error event
		// rather than dropping the line silently.
		data, _ = json.Marshal(Event{Type: TypeError, Message: fmt.Sprintf("internal: failed to marshal event: %v", err)})
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.out.Write(data)
	w.out.Write([]byte{'\n'})
}
