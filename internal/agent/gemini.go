package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/history"
)

// GeminiAgent spawns `gemini --output-format stream-json` per turn. See
// SPEC_FULL.md §4.6.
type GeminiAgent struct {
	cliBase
}

func NewGeminiAgent(role Role, workspaceDir string, journal *history.Journal, log *logger.Logger) *GeminiAgent {
	return &GeminiAgent{cliBase: newCLIBase(role, workspaceDir, journal, log)}
}

type geminiEvent struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`

	SessionID string `json:"session_id"`

	Name  string          `json:"name"`
	Tool  string          `json:"tool"`
	Args  json.RawMessage `json:"args"`
	Input json.RawMessage `json:"input"`

	Result string `json:"result"`
	Output string `json:"output"`

	Status string `json:"status"`

	Message string `json:"message"`
}

func (a *GeminiAgent) Send(ctx context.Context, message string) (<-chan events.Event, error) {
	a.mu.Lock()
	out := make(chan events.Event, 64)
	a.appendUserHistory(message)
	a.interrupted.Store(false)

	go func() {
		defer a.mu.Unlock()
		defer close(out)
		a.runTurn(ctx, message, out)
	}()
	return out, nil
}

func (a *GeminiAgent) runTurn(ctx context.Context, message string, out chan<- events.Event) {
	out <- events.Status(events.StatusThinking)

	args := []string{"--output-format", "stream-json", "--yolo"}
	a.procMu.Lock()
	resume := a.resumeID
	a.procMu.Unlock()
	if resume != "" {
		args = append(args, "--resume", resume)
	}
	args = append(args, "-p", message)

	var assistantText strings.Builder
	var hasError bool
	var mu sync.Mutex

	lineFn := func(line []byte) {
		var ge geminiEvent
		if err := json.Unmarshal(line, &ge); err != nil {
			// Gemini passes through raw text when it's not emitting a
			// structured event; treat the whole line as a text delta.
			out <- events.TextDelta(string(line))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch ge.Type {
		case "init":
			a.procMu.Lock()
			a.resumeID = ge.SessionID
			a.procMu.Unlock()
		case "message":
			if ge.Role == "user" {
				return
			}
			assistantText.WriteString(ge.Content)
			out <- events.TextDelta(ge.Content)
		case "tool_use":
			name := ge.Name
			if name == "" {
				name = ge.Tool
			}
			input := ge.Input
			if input == nil {
				input = ge.Args
			}
			out <- events.ToolUse(name, input)
		case "tool_result":
			content := ge.Result
			if content == "" {
				content = ge.Output
			}
			out <- events.ToolResult(content, false)
		case "result":
			if ge.Status != "success" && ge.Status != "" {
				hasError = true
			}
		case "error":
			hasError = true
			msg := ge.Message
			if msg == "" {
				msg = ge.Content
			}
			out <- events.Err(msg)
		}
	}

	err := a.runProcess(ctx, "gemini", args, subprocessEnv(nil), lineFn)
	if err != nil {
		hasError = true
		out <- events.Err(fmt.Sprintf("gemini exit: %v", err))
	}

	a.appendAssistantHistory(assistantText.String())
	a.procMu.Lock()
	sid := a.resumeID
	a.procMu.Unlock()
	out <- events.Result(sid, hasError)
	out <- events.Status(events.StatusIdle)
}
