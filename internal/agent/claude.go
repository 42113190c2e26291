package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/kandev/hivemind/internal/common/hiveerr"
	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/history"
	"go.uber.org/zap"
)

// defaultClaudeModel is overridden per-deployment via configuration; it is
// also mirrored into ANTHROPIC_MODEL at connect time to work around a known
// CLI bug where the structured model option is silently ignored.
const defaultClaudeModel = "claude-sonnet-4-5"

const claudeMaxTokens = 8192

// ClaudeAgent is a persistent bidirectional SDK client: one long-lived
// *sdk.Client per pane, reused across turns.
type ClaudeAgent struct {
	base

	client    *sdk.Client
	model     string
	workspace string
	cwd       string
	log       *logger.Logger

	turnMu     sync.Mutex
	cancelTurn context.CancelFunc
}

func NewClaudeAgent(role Role, workspaceDir, model string, journal *history.Journal, log *logger.Logger) *ClaudeAgent {
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeAgent{
		base:      newBase(role, journal, log.WithRole(role.RoleName)),
		model:     model,
		workspace: workspaceDir,
		log:       log.WithRole(role.RoleName),
	}
}

func (a *ClaudeAgent) Connect(ctx context.Context, resumeID string) error {
	// The Claude backend rejects provider-side resume at the transport
	// layer (stale tokens cause fatal reader errors), so resumeID is
	// intentionally unused here; context is reconstructed at the
	// application layer instead. See SPEC_FULL.md §4.5.
	a.cwd = a.resolveCwd()

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	os.Setenv("ANTHROPIC_MODEL", a.model)

	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := sdk.NewClient(opts...)
	a.client = client

	// The raw Messages streaming API has no server-side conversation/session
	// concept to resume; the token this core persists is a local identifier
	// for the sole purpose of having a stable "session_id" field to report
	// to the host across restarts, mirroring the placeholder-session-id
	// pattern the provider adapters in the corpus use before a provider
	// reports its own id.
	a.setSessionID(uuid.NewString())

	a.queueContextRestore()
	a.connected = true
	return nil
}

func (a *ClaudeAgent) resolveCwd() string {
	dir := filepath.Join(a.workspace, "instances", a.role.RoleDir)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	if a.log != nil {
		a.log.Warn("role working directory missing, falling back to workspace root", zap.String("dir", dir))
	}
	return a.workspace
}

func (a *ClaudeAgent) Send(ctx context.Context, message string) (<-chan events.Event, error) {
	a.mu.Lock() // serializes turns on this agent; released when the turn goroutine exits

	out := make(chan events.Event, 64)
	prompt := a.composePrompt(message)
	a.appendUserHistory(message)

	turnCtx, cancel := context.WithCancel(ctx)
	a.turnMu.Lock()
	a.cancelTurn = cancel
	a.turnMu.Unlock()

	go func() {
		defer a.mu.Unlock()
		defer close(out)
		defer func() {
			a.turnMu.Lock()
			a.cancelTurn = nil
			a.turnMu.Unlock()
		}()

		out <- events.Status(events.StatusThinking)
		a.runTurn(turnCtx, prompt, out)
	}()

	return out, nil
}

func (a *ClaudeAgent) runTurn(ctx context.Context, prompt string, out chan<- events.Event) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: claudeMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}

	stream, err := a.newStreamWithRetry(ctx, params)
	if err != nil {
		out <- events.ErrWithType(fmt.Sprintf("claude API retry failed: %v", err), string(hiveerr.CategoryTransient))
		out <- events.Status(events.StatusIdle)
		return
	}
	defer stream.Close()

	var assistantText strings.Builder
	type toolBuf struct {
		id, name string
		input    strings.Builder
	}
	toolBlocks := map[int64]*toolBuf{}

	var isError bool
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case sdk.ContentBlockStartEvent:
			if tu, ok := ev.ContentBlock.AsAny().(sdk.ToolUseBlock); ok {
				toolBlocks[ev.Index] = &toolBuf{id: tu.ID, name: tu.Name}
			}
		case sdk.ContentBlockDeltaEvent:
			switch d := ev.Delta.AsAny().(type) {
			case sdk.TextDelta:
				if d.Text == "" {
					continue
				}
				assistantText.WriteString(d.Text)
				out <- events.TextDelta(d.Text)
			case sdk.ThinkingDelta:
				if d.Thinking != "" {
					out <- events.ThinkingDelta(d.Thinking)
				}
			case sdk.InputJSONDelta:
				if tb := toolBlocks[ev.Index]; tb != nil {
					tb.input.WriteString(d.PartialJSON)
				}
			}
		case sdk.ContentBlockStopEvent:
			if tb := toolBlocks[ev.Index]; tb != nil {
				raw := tb.input.String()
				if strings.TrimSpace(raw) == "" {
					raw = "{}"
				}
				out <- events.ToolUse(tb.name, json.RawMessage(raw))
				delete(toolBlocks, ev.Index)
			}
		case sdk.MessageStopEvent:
			// end of assistant message; result emitted after stream.Next() returns false
		}
	}
	if err := stream.Err(); err != nil {
		isError = true
		out <- events.Err(fmt.Sprintf("claude stream error: %v", err))
	}

	a.appendAssistantHistory(assistantText.String())
	out <- events.Result(a.GetSessionID(), isError)
	out <- events.Status(events.StatusIdle)
}

// newStreamWithRetry wraps the initial streaming call in the aggressive
// backoff profile: multiplier 2.0, max 30s, the one place SPEC_FULL.md calls
// out a more tolerant retry than the default transient-error profile.
func (a *ClaudeAgent) newStreamWithRetry(ctx context.Context, params sdk.MessageNewParams) (*ssestream.Stream[sdk.MessageStreamEventUnion], error) {
	op := func() (*ssestream.Stream[sdk.MessageStreamEventUnion], error) {
		return a.client.Messages.NewStreaming(ctx, params), nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.Multiplier = 2.0
	bo.MaxInterval = 30 * time.Second
	return backoff.Retry(ctx, op, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
}

func (a *ClaudeAgent) Interrupt() bool {
	a.turnMu.Lock()
	defer a.turnMu.Unlock()
	if a.cancelTurn == nil {
		return false
	}
	a.cancelTurn()
	return true
}

func (a *ClaudeAgent) Disconnect(ctx context.Context) string {
	if !a.connected {
		return a.GetSessionID()
	}
	a.connected = false

	done := make(chan struct{})
	go func() {
		a.Interrupt()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	return a.GetSessionID()
}
