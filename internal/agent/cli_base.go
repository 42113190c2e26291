package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/history"
)

// cliBase is the shared scaffolding for the two CLI-subprocess agent
// variants (Codex, Gemini): neither maintains a persistent connection, each
// turn spawns a fresh subprocess whose stdout is parsed line by line.
type cliBase struct {
	base

	workspace string
	log       *logger.Logger

	interrupted atomic.Bool

	procMu   sync.Mutex
	cmd      *exec.Cmd
	resumeID string // provider-specific thread/session index
}

func newCLIBase(role Role, workspaceDir string, journal *history.Journal, log *logger.Logger) cliBase {
	return cliBase{
		base:      newBase(role, journal, log.WithRole(role.RoleName)),
		workspace: workspaceDir,
		log:       log.WithRole(role.RoleName),
	}
}

func (c *cliBase) Connect(ctx context.Context, resumeID string) error {
	c.resumeID = resumeID
	c.connected = true
	return nil
}

// Interrupt sets the interrupt flag and, if a subprocess is running,
// terminates it with a 2-second grace before force-kill.
func (c *cliBase) Interrupt() bool {
	c.interrupted.Store(true)

	c.procMu.Lock()
	cmd := c.cmd
	c.procMu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return true
	}

	cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cmd.Process.Kill()
	}
	return true
}

func (c *cliBase) Disconnect(ctx context.Context) string {
	c.Interrupt()
	c.connected = false
	return c.resumeID
}

// GetSessionID overrides base's, since CLI agents track their provider
// thread/session index as resumeID rather than through setSessionID.
func (c *cliBase) GetSessionID() string {
	c.procMu.Lock()
	defer c.procMu.Unlock()
	return c.resumeID
}

// runProcess drives: spawn name+args, read stdout line by line into lineFn,
// wait for exit, and surface a non-zero exit code via stderr drain (with
// known-benign provider warning lines dropped). lineFn receives each raw
// stdout line (JSON or, for Gemini, passthrough text).
func (c *cliBase) runProcess(ctx context.Context, name string, args []string, env []string, lineFn func(line []byte)) error {
	resolved, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found on PATH (install the %s CLI and make sure it is on PATH): %w", name, name, err)
	}

	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Dir = c.workspace
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	c.procMu.Lock()
	c.cmd = cmd
	c.procMu.Unlock()
	defer func() {
		c.procMu.Lock()
		c.cmd = nil
		c.procMu.Unlock()
	}()

	scanner := bufio.NewScanner(stdout)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		if c.interrupted.Load() {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineFn(append([]byte(nil), line...))
	}

	stderrBytes, _ := io.ReadAll(stderr)
	var kept []string
	for _, l := range strings.Split(string(stderrBytes), "\n") {
		if !logger.IsBenignProviderWarning(l) {
			kept = append(kept, l)
		}
	}
	waitErr := cmd.Wait()
	if waitErr != nil {
		return fmt.Errorf("exit error: %w: %s", waitErr, stringTrimmed([]byte(strings.Join(kept, "\n"))))
	}
	return nil
}

func stringTrimmed(b []byte) string {
	s := string(b)
	if len(s) > 500 {
		return s[:500]
	}
	return s
}
