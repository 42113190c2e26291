package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/hivemind/internal/events"
)

func newTestCodexAgent(t *testing.T) *CodexAgent {
	t.Helper()
	role := Role{RoleName: "Infra", PaneID: "2", ModelKind: ModelCodex}
	return NewCodexAgent(role, t.TempDir(), nil, testLogger(t))
}

func drain(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func decodeCodexEvent(t *testing.T, raw string) codexEvent {
	t.Helper()
	var ce codexEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &ce))
	return ce
}

func TestCodexHandleItemEventCommandExecution(t *testing.T) {
	a := newTestCodexAgent(t)
	out := make(chan events.Event, 4)
	var text strings.Builder

	started := decodeCodexEvent(t, `{"type":"item.started","item":{"type":"command_execution","command":"ls -la"}}`)

	a.handleItemEvent(started, out, &text)
	close(out)

	evs := drain(out)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeToolUse, evs[0].Type)
	assert.Equal(t, "Bash", evs[0].ToolName)
	assert.Contains(t, string(evs[0].ToolInput), "ls -la")
}

func TestCodexHandleItemEventAgentMessageAccumulatesText(t *testing.T) {
	a := newTestCodexAgent(t)
	out := make(chan events.Event, 4)
	var text strings.Builder

	completed := decodeCodexEvent(t, `{"type":"item.completed","item":{"type":"agent_message","text":"hello there"}}`)

	a.handleItemEvent(completed, out, &text)
	close(out)

	evs := drain(out)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeTextDelta, evs[0].Type)
	assert.Equal(t, "hello there", evs[0].Text)
	assert.Equal(t, "hello there", text.String())
}

func TestCodexEventUnmarshalsThreadStarted(t *testing.T) {
	var ce codexEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"thread.started","thread_id":"th_123"}`), &ce))
	assert.Equal(t, "thread.started", ce.Type)
	assert.Equal(t, "th_123", ce.ThreadID)
}

func TestCodexEventUnmarshalsTurnFailed(t *testing.T) {
	var ce codexEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"turn.failed","error":{"message":"rate limited"}}`), &ce))
	require.NotNil(t, ce.Error)
	assert.Equal(t, "rate limited", ce.Error.Message)
}
