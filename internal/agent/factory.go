package agent

import (
	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/history"
)

// Factory constructs an Agent for a role, keyed by its model_kind.
type Factory struct {
	workspaceDir string
	claudeModel  string
	log          *logger.Logger
}

func NewFactory(workspaceDir, claudeModel string, log *logger.Logger) *Factory {
	return &Factory{workspaceDir: workspaceDir, claudeModel: claudeModel, log: log}
}

// Build constructs a fresh agent for role. Each call produces a brand new
// instance; the manager is responsible for discarding the old one on
// restart.
func (f *Factory) Build(role Role) Agent {
	journal := history.New(f.workspaceDir, role.PaneID, role.RoleName, f.log)
	switch role.ModelKind {
	case ModelCodex:
		return NewCodexAgent(role, f.workspaceDir, journal, f.log)
	case ModelGemini:
		return NewGeminiAgent(role, f.workspaceDir, journal, f.log)
	default:
		return NewClaudeAgent(role, f.workspaceDir, f.claudeModel, journal, f.log)
	}
}

// SupportsResume reports whether a provider is willing to attempt a resume
// with a previously stored session token. Claude rejects resume at the
// transport layer (SPEC_FULL.md §4.5); Gemini's CLI resume flag is
// positional-index based and unreliable across process restarts so the core
// treats it as unsupported; Codex alone attempts it.
func SupportsResume(kind ModelKind) bool {
	return kind == ModelCodex
}
