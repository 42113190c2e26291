package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFlagsOrEnv(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.WorkspaceDir)
	assert.False(t, cfg.IPCMode)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("HIVEMIND_LOG_LEVEL", "warn")
	cfg, err := Load([]string{"--log-level", "debug", "--ipc"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.IPCMode)
}

func TestLoadDerivesSessionsAndSettingsPathsFromWorkspace(t *testing.T) {
	cfg, err := Load([]string{"--workspace", "/tmp/ws"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ws/session-state.json", cfg.SessionsPath)
	assert.Equal(t, "/tmp/ws/ui/settings.json", cfg.SettingsPath)
}

func TestReadPaneCommandsToleratesMissingFile(t *testing.T) {
	assert.Nil(t, ReadPaneCommands(filepath.Join(t.TempDir(), "does-not-exist.json")))
}

func TestReadPaneCommandsParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"paneCommands":{"2":"codex exec --json"}}`), 0644))

	got := ReadPaneCommands(path)
	assert.Equal(t, "codex exec --json", got["2"])
}
