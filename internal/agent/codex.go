package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kandev/hivemind/internal/common/hiveerr"
	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/history"
)

// CodexAgent spawns `codex exec` per turn and parses its --json event
// stream. See SPEC_FULL.md §4.6.
type CodexAgent struct {
	cliBase
}

func NewCodexAgent(role Role, workspaceDir string, journal *history.Journal, log *logger.Logger) *CodexAgent {
	return &CodexAgent{cliBase: newCLIBase(role, workspaceDir, journal, log)}
}

type codexEvent struct {
	Type string `json:"type"`
	// thread.started
	ThreadID string `json:"thread_id"`
	// turn.failed
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	// item.* events
	Item *struct {
		Type          string `json:"type"`
		Text          string `json:"text"`
		Command       string `json:"command"`
		Output        string `json:"output"`
		ExitCode      *int   `json:"exit_code"`
		FilePath      string `json:"file_path"`
		ToolName      string `json:"tool_name"`
		Arguments     json.RawMessage `json:"arguments"`
		Query         string `json:"query"`
	} `json:"item"`
}

func (a *CodexAgent) Send(ctx context.Context, message string) (<-chan events.Event, error) {
	a.mu.Lock()
	out := make(chan events.Event, 64)
	a.appendUserHistory(message)
	a.interrupted.Store(false)

	go func() {
		defer a.mu.Unlock()
		defer close(out)
		a.runTurn(ctx, message, out, false)
	}()
	return out, nil
}

func (a *CodexAgent) runTurn(ctx context.Context, message string, out chan<- events.Event, isRetryAfterExpiry bool) {
	out <- events.Status(events.StatusThinking)

	args := []string{"exec", "--json"}
	a.procMu.Lock()
	resume := a.resumeID
	a.procMu.Unlock()
	if resume != "" {
		args = append(args, "resume", resume)
	}
	args = append(args, message)

	var assistantText strings.Builder
	var hasError bool
	var mu sync.Mutex

	lineFn := func(line []byte) {
		var ce codexEvent
		if err := json.Unmarshal(line, &ce); err != nil {
			a.log.Warn("codex: unparsable event line, skipping")
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch ce.Type {
		case "thread.started":
			a.procMu.Lock()
			a.resumeID = ce.ThreadID
			a.procMu.Unlock()
			out <- events.Event{Type: events.TypeStatus, State: events.StatusThreadStarted, SessionID: ce.ThreadID}
		case "turn.started":
			out <- events.Status(events.StatusTurnStarted)
		case "turn.completed":
			out <- events.Status(events.StatusTurnCompleted)
		case "turn.failed":
			hasError = true
			msg := "turn failed"
			if ce.Error != nil {
				msg = ce.Error.Message
			}
			out <- events.Err(msg)
		case "item.started", "item.completed":
			a.handleItemEvent(ce, out, &assistantText)
		}
	}

	err := a.runProcess(ctx, "codex", args, subprocessEnv(nil), lineFn)
	if err != nil {
		if !isRetryAfterExpiry && hiveerr.IsThreadExpired(err) {
			a.procMu.Lock()
			a.resumeID = ""
			a.procMu.Unlock()
			out <- events.Status(events.StatusThreadExpiredRestarting)
			a.runTurn(ctx, message, out, true)
			return
		}
		hasError = true
		out <- events.Err(fmt.Sprintf("codex exit: %v", err))
	}

	a.appendAssistantHistory(assistantText.String())
	out <- events.Result(a.resumeIDSnapshot(), hasError)
	out <- events.Status(events.StatusIdle)
}

func (a *CodexAgent) resumeIDSnapshot() string {
	a.procMu.Lock()
	defer a.procMu.Unlock()
	return a.resumeID
}

func (a *CodexAgent) handleItemEvent(ce codexEvent, out chan<- events.Event, assistantText *strings.Builder) {
	if ce.Item == nil {
		return
	}
	switch ce.Item.Type {
	case "reasoning":
		if ce.Type == "item.started" {
			out <- events.ThinkingDelta("Reasoning...")
		} else {
			out <- events.ThinkingDelta(ce.Item.Text)
		}
	case "command_execution":
		if ce.Type == "item.started" {
			input, _ := json.Marshal(map[string]string{"command": ce.Item.Command})
			out <- events.ToolUse("Bash", input)
		} else {
			isErr := ce.Item.ExitCode != nil && *ce.Item.ExitCode != 0
			out <- events.ToolResult(ce.Item.Output, isErr)
		}
	case "file_change":
		if ce.Type == "item.started" {
			input, _ := json.Marshal(map[string]string{"file_path": ce.Item.FilePath})
			out <- events.ToolUse("Edit", input)
		} else {
			out <- events.ToolResult(ce.Item.Output, false)
		}
	case "mcp_tool_call":
		if ce.Type == "item.started" {
			out <- events.ToolUse(ce.Item.ToolName, ce.Item.Arguments)
		}
	case "web_search":
		if ce.Type == "item.started" {
			input, _ := json.Marshal(map[string]string{"query": ce.Item.Query})
			out <- events.ToolUse("WebSearch", input)
		}
	case "plan_update":
		if ce.Type == "item.started" {
			out <- events.ThinkingDelta("Updating plan...")
		}
	case "agent_message":
		if ce.Type == "item.completed" {
			assistantText.WriteString(ce.Item.Text)
			out <- events.TextDelta(ce.Item.Text)
		}
	}
}
