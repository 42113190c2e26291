// Package config loads hivemind's process configuration from CLI flags
// (spf13/pflag) with HIVEMIND_* environment variable fallbacks, adapted from
// the teacher's agentctl env-var loader.
package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Config holds the core's process configuration.
type Config struct {
	WorkspaceDir string
	IPCMode      bool
	LogLevel     string
	LogFormat    string
	ClaudeModel  string
	SessionsPath string
	SettingsPath string
}

// Load parses args (typically os.Args[1:]) and applies HIVEMIND_* env
// fallbacks for anything not given as a flag.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("hivemind", pflag.ContinueOnError)

	workspace := fs.String("workspace", getEnv("HIVEMIND_WORKSPACE", "."), "workspace root shared by all panes")
	ipc := fs.Bool("ipc", getEnvBool("HIVEMIND_IPC", false), "run the stdin/stdout control protocol instead of the interactive REPL")
	logLevel := fs.String("log-level", getEnv("HIVEMIND_LOG_LEVEL", "info"), "debug, info, warn, or error")
	logFormat := fs.String("log-format", getEnv("HIVEMIND_LOG_FORMAT", ""), "json or text; defaults by HIVEMIND_ENV")
	claudeModel := fs.String("claude-model", getEnv("HIVEMIND_CLAUDE_MODEL", ""), "override the Claude agent's model id")
	sessionsPath := fs.String("sessions-file", getEnv("HIVEMIND_SESSIONS_FILE", ""), "path to the session token store")
	settingsPath := fs.String("settings-file", getEnv("HIVEMIND_SETTINGS_FILE", ""), "path to ui/settings.json for pane command overrides")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		WorkspaceDir: *workspace,
		IPCMode:      *ipc,
		LogLevel:     *logLevel,
		LogFormat:    *logFormat,
		ClaudeModel:  *claudeModel,
		SessionsPath: *sessionsPath,
		SettingsPath: *settingsPath,
	}
	if cfg.SessionsPath == "" {
		cfg.SessionsPath = cfg.WorkspaceDir + "/session-state.json"
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = cfg.WorkspaceDir + "/ui/settings.json"
	}
	return cfg, nil
}

// ReadPaneCommands reads the optional paneCommands map out of a
// ui/settings.json-shaped file, tolerating a missing file.
func ReadPaneCommands(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc struct {
		PaneCommands map[string]string `json:"paneCommands"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.PaneCommands
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true" || v == "1"
	}
	return defaultValue
}
