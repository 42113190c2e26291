package agent

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubprocessEnvIncludesSetCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-value")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	env := subprocessEnv(nil)

	assert.True(t, containsEntry(env, "GEMINI_API_KEY=test-key-value"))
	assert.False(t, containsEntry(env, "OPENAI_API_KEY="))
}

func TestSubprocessEnvAppliesExtraOverrides(t *testing.T) {
	env := subprocessEnv(map[string]string{"HIVEMIND_PANE": "3"})
	assert.True(t, containsEntry(env, "HIVEMIND_PANE=3"))
}

func TestSubprocessEnvStartsFromParentEnviron(t *testing.T) {
	t.Setenv("HIVEMIND_TEST_MARKER", "present")
	env := subprocessEnv(nil)
	assert.True(t, containsEntry(env, "HIVEMIND_TEST_MARKER=present"))
	assert.GreaterOrEqual(t, len(env), len(os.Environ()))
}

func containsEntry(env []string, want string) bool {
	for _, e := range env {
		if e == want {
			return true
		}
	}
	return false
}

func TestCredentialEnvVarsCoversAllThreeProviders(t *testing.T) {
	joined := strings.Join(credentialEnvVars, ",")
	assert.Contains(t, joined, "ANTHROPIC_API_KEY")
	assert.Contains(t, joined, "CODEX_API_KEY")
	assert.Contains(t, joined, "GEMINI_API_KEY")
}
