// Package history implements per-agent append-only conversation journals
// and the context-restore preamble synthesized from their tail entries.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/sanitize"
	"go.uber.org/zap"
)

// MaxEntryRunes bounds the stored size of a single history entry.
const MaxEntryRunes = 2000

// MaxPreambleRunes bounds the per-entry excerpt quoted in the context-restore
// preamble.
const MaxPreambleRunes = 200

// Entry is one recorded turn side.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// Journal is the append-only history file for one pane/role pair.
type Journal struct {
	path string
	role string // human-readable role name, used in the context-restore header
	log  *logger.Logger
}

// New returns a Journal rooted at workspace/history/<paneID>-<roleSlug>.jsonl.
func New(workspaceDir, paneID, roleName string, log *logger.Logger) *Journal {
	slug := slugify(roleName)
	path := filepath.Join(workspaceDir, "history", fmt.Sprintf("%s-%s.jsonl", paneID, slug))
	return &Journal{path: path, role: roleName, log: log}
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Append strips role markers from content; if the result is empty while the
// input was not (a bare marker), nothing is written. Any IO error is
// swallowed and logged — history is advisory and must never fail a turn.
func (j *Journal) Append(role, content string) {
	cleaned := sanitize.StripRoleMarkers(content)
	if cleaned == "" {
		return
	}
	entry := Entry{Timestamp: time.Now().UTC(), Role: role, Content: truncateRunes(cleaned, MaxEntryRunes)}

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		j.warn("mkdir failed", err)
		return
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		j.warn("open failed", err)
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		j.warn("marshal failed", err)
		return
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		j.warn("write failed", err)
	}
}

func (j *Journal) warn(msg string, err error) {
	if j.log != nil {
		j.log.Warn("history journal: "+msg, zap.String("path", j.path), zap.Error(err))
	}
}

// LoadTail returns up to the last n entries, skipping malformed lines. Any
// IO error (including a missing file) yields an empty slice.
func (j *Journal) LoadTail(n int) []Entry {
	f, err := os.Open(j.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var all []Entry
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		all = append(all, e)
	}
	if err := scanner.Err(); err != nil {
		return nil
	}
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// BuildContextRestore composes the application-level context preamble from
// the last n history entries, returning ok=false when there is no history to
// restore.
func (j *Journal) BuildContextRestore(n int) (string, bool) {
	tail := j.LoadTail(n)
	if len(tail) == 0 {
		return "", false
	}
	last := tail[len(tail)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "HIVEMIND CONTEXT RESTORE - %s\n", j.role)
	fmt.Fprintf(&b, "Last activity: %s\n\n", last.Timestamp.Format(time.RFC3339))
	for _, e := range tail {
		fmt.Fprintf(&b, "- [%s] %s\n", e.Role, truncateRunes(e.Content, MaxPreambleRunes))
	}
	b.WriteString("\n--- END CONTEXT RESTORE ---")
	return b.String(), true
}
