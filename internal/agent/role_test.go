package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRolesHasSixPanesInOrder(t *testing.T) {
	roles := DefaultRoles()
	assert.Len(t, roles, 6)

	wantPaneIDs := []string{"1", "2", "3", "4", "5", "6"}
	for i, r := range roles {
		assert.Equal(t, wantPaneIDs[i], r.PaneID)
	}
}

func TestReviewerHasNoWriteTools(t *testing.T) {
	roles := DefaultRoles()
	var reviewer Role
	for _, r := range roles {
		if r.RoleName == "Reviewer" {
			reviewer = r
		}
	}
	assert.NotContains(t, reviewer.AllowedTools, "Write")
	assert.NotContains(t, reviewer.AllowedTools, "Edit")
	assert.Contains(t, reviewer.AllowedTools, "Bash")
}

func TestResolveModelKindAppliesOverride(t *testing.T) {
	assert.Equal(t, ModelCodex, ResolveModelKind(ModelClaude, "codex exec --json"))
	assert.Equal(t, ModelGemini, ResolveModelKind(ModelClaude, "gemini --output-format stream-json"))
	assert.Equal(t, ModelClaude, ResolveModelKind(ModelClaude, ""))
	assert.Equal(t, ModelClaude, ResolveModelKind(ModelClaude, "some-other-binary"))
}
