package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiEventUnmarshalsMessage(t *testing.T) {
	var ge geminiEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"message","role":"assistant","content":"hi"}`), &ge))
	assert.Equal(t, "message", ge.Type)
	assert.Equal(t, "assistant", ge.Role)
	assert.Equal(t, "hi", ge.Content)
}

func TestGeminiEventUnmarshalsInit(t *testing.T) {
	var ge geminiEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"init","session_id":"sess-xyz"}`), &ge))
	assert.Equal(t, "init", ge.Type)
	assert.Equal(t, "sess-xyz", ge.SessionID)
}

func TestNewGeminiAgentStartsDisconnected(t *testing.T) {
	role := Role{RoleName: "Analyst", PaneID: "5", ModelKind: ModelGemini}
	a := NewGeminiAgent(role, t.TempDir(), nil, testLogger(t))
	assert.Equal(t, role, a.Role())
	assert.False(t, a.connected)
	assert.Empty(t, a.GetSessionID())
}
