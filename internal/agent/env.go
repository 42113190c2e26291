package agent

import "os"

// credentialEnvVars lists the provider credential variables this core passes
// through to a spawned CLI subprocess, narrowed from the broader
// cloud/VCS-credential surface a container-orchestrating sibling system
// would need down to the three providers actually in play here.
var credentialEnvVars = []string{
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
	"CODEX_API_KEY",
	"GEMINI_API_KEY",
	"GOOGLE_API_KEY",
}

// subprocessEnv builds the environment for a CLI-subprocess agent: the
// process's own inherited environment plus any provider credential that is
// set, ensuring it is present even if the parent process's env was trimmed
// before exec.
func subprocessEnv(extra map[string]string) []string {
	env := os.Environ()
	for _, k := range credentialEnvVars {
		if v := os.Getenv(k); v != "" {
			env = append(env, k+"="+v)
		}
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
