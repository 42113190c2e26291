package agent

// ModelKind identifies which provider backend an AgentRole is bound to.
type ModelKind string

const (
	ModelClaude ModelKind = "claude"
	ModelCodex  ModelKind = "codex"
	ModelGemini ModelKind = "gemini"
)

// PermissionMode mirrors the Claude SDK's permission modes; the core always
// runs agents under bypassPermissions since turns are non-interactive.
type PermissionMode string

const (
	PermissionDefault      PermissionMode = "default"
	PermissionAcceptEdits  PermissionMode = "acceptEdits"
	PermissionPlan         PermissionMode = "plan"
	PermissionBypass       PermissionMode = "bypassPermissions"
)

// Role is the immutable configuration for one pane.
type Role struct {
	RoleName       string
	PaneID         string
	ModelKind      ModelKind
	RoleDir        string
	AllowedTools   []string
	PermissionMode PermissionMode
}

var (
	readWriteTools = []string{"Read", "Write", "Edit", "Bash", "Glob", "Grep", "WebSearch", "WebFetch"}
	readOnlyTools  = []string{"Read", "Glob", "Grep", "WebSearch", "WebFetch", "Bash"}
)

// DefaultRoles returns the six canonical agent roles, in pane order.
// Reviewer keeps Bash (to invoke a send-to-peer helper) but no write/edit
// capability, per the Reviewer invariant in SPEC_FULL.md §3.
func DefaultRoles() []Role {
	return []Role{
		{RoleName: "Architect", PaneID: "1", ModelKind: ModelClaude, RoleDir: "architect", AllowedTools: readWriteTools, PermissionMode: PermissionBypass},
		{RoleName: "Infra", PaneID: "2", ModelKind: ModelCodex, RoleDir: "infra", AllowedTools: readWriteTools, PermissionMode: PermissionBypass},
		{RoleName: "Frontend", PaneID: "3", ModelKind: ModelClaude, RoleDir: "frontend", AllowedTools: readWriteTools, PermissionMode: PermissionBypass},
		{RoleName: "Backend", PaneID: "4", ModelKind: ModelClaude, RoleDir: "backend", AllowedTools: readWriteTools, PermissionMode: PermissionBypass},
		{RoleName: "Analyst", PaneID: "5", ModelKind: ModelGemini, RoleDir: "analyst", AllowedTools: readWriteTools, PermissionMode: PermissionBypass},
		{RoleName: "Reviewer", PaneID: "6", ModelKind: ModelClaude, RoleDir: "reviewer", AllowedTools: readOnlyTools, PermissionMode: PermissionBypass},
	}
}

// ResolveModelKind applies a pane command override (if any) on top of the
// role's default model kind.
func ResolveModelKind(defaultKind ModelKind, command string) ModelKind {
	switch {
	case len(command) >= 5 && command[:5] == "codex":
		return ModelCodex
	case len(command) >= 6 && command[:6] == "gemini":
		return ModelGemini
	default:
		return defaultKind
	}
}
