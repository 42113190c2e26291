package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kandev/hivemind/internal/common/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(logger.LoggingConfig{Level: "error", OutputPath: "stderr"})
	require.NoError(t, err)
	return l
}

func TestFactoryBuildDispatchesByModelKind(t *testing.T) {
	f := NewFactory(t.TempDir(), "", testLogger(t))

	claude := f.Build(Role{RoleName: "Architect", PaneID: "1", ModelKind: ModelClaude})
	_, ok := claude.(*ClaudeAgent)
	assert.True(t, ok)

	codex := f.Build(Role{RoleName: "Infra", PaneID: "2", ModelKind: ModelCodex})
	_, ok = codex.(*CodexAgent)
	assert.True(t, ok)

	gemini := f.Build(Role{RoleName: "Analyst", PaneID: "5", ModelKind: ModelGemini})
	_, ok = gemini.(*GeminiAgent)
	assert.True(t, ok)
}

func TestFactoryBuildProducesFreshInstancesEachCall(t *testing.T) {
	f := NewFactory(t.TempDir(), "", testLogger(t))
	role := Role{RoleName: "Architect", PaneID: "1", ModelKind: ModelClaude}

	a := f.Build(role)
	b := f.Build(role)
	assert.NotSame(t, a, b)
}

func TestSupportsResume(t *testing.T) {
	assert.False(t, SupportsResume(ModelClaude))
	assert.True(t, SupportsResume(ModelCodex))
	assert.False(t, SupportsResume(ModelGemini))
}
