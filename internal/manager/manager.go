// Package manager owns the fixed pool of six agents, routes commands to
// them, fans out broadcasts, and persists session tokens on shutdown. It is
// grounded on the teacher's agent lifecycle manager
// (internal/agent/lifecycle/manager.go), generalized away from Docker
// container lifecycle toward direct in-process/subprocess agent lifecycle.
package manager

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kandev/hivemind/internal/agent"
	"github.com/kandev/hivemind/internal/common/logger"
	"github.com/kandev/hivemind/internal/events"
	"github.com/kandev/hivemind/internal/session"
	"go.uber.org/zap"
)

// Manager owns the live agent pool keyed by pane id.
type Manager struct {
	factory *agent.Factory
	store   *session.Store
	writer  *events.Writer
	log     *logger.Logger

	mu     sync.RWMutex
	agents map[string]agent.Agent
	roles  []agent.Role
}

func New(factory *agent.Factory, store *session.Store, writer *events.Writer, roles []agent.Role, log *logger.Logger) *Manager {
	return &Manager{
		factory: factory,
		store:   store,
		writer:  writer,
		roles:   roles,
		agents:  make(map[string]agent.Agent, len(roles)),
		log:     log,
	}
}

// Start instantiates all six agents in pane order, attempts a resume-aware
// connect, and emits agent_started per agent. Per-agent connect failures are
// isolated: they emit an error event but do not abort startup.
func (m *Manager) Start(ctx context.Context) {
	sessions := m.store.Load()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, role := range m.roles {
		a := m.factory.Build(role)
		m.agents[role.PaneID] = a

		resumeID := ""
		resumed := false
		if agent.SupportsResume(role.ModelKind) {
			if tok, ok := sessions[role.PaneID]; ok {
				resumeID = tok
				resumed = true
			}
		}

		if err := a.Connect(ctx, resumeID); err != nil {
			m.writer.Emit(events.Err(fmt.Sprintf("failed to start agent: %v", err)), role.PaneID, role.RoleName)
			continue
		}
		m.writer.Emit(events.Event{
			Type:    events.TypeAgentStarted,
			Model:   string(role.ModelKind),
			Resumed: boolPtr(resumed),
		}, role.PaneID, role.RoleName)
	}
}

func boolPtr(b bool) *bool { return &b }

// PaneIDs returns the pane id space in the role table's declared order.
func (m *Manager) PaneIDs() []string {
	ids := make([]string, 0, len(m.roles))
	for _, r := range m.roles {
		ids = append(ids, r.PaneID)
	}
	return ids
}

func (m *Manager) lookup(paneID string) (agent.Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[paneID]
	return a, ok
}

// SendMessage routes one message to the agent on paneID, tagging every
// resulting event with pane/role and writing it to the output stream.
// Exceptions while iterating the stream are caught and surfaced as a
// pane-scoped error event.
func (m *Manager) SendMessage(ctx context.Context, paneID, message string) {
	a, ok := m.lookup(paneID)
	if !ok {
		m.writer.Emit(events.ErrWithType(fmt.Sprintf("unknown pane: %s", paneID), "protocol"), paneID, "")
		return
	}
	role := a.Role()
	m.writer.Emit(events.Event{Type: events.TypeMessageReceived}, paneID, role.RoleName)

	stream, err := a.Send(ctx, message)
	if err != nil {
		m.writer.Emit(events.ErrWithType(err.Error(), "provider_logical"), paneID, role.RoleName)
		return
	}
	for ev := range stream {
		m.writer.Emit(ev, paneID, role.RoleName)
	}
}

// Broadcast concurrently sends message to every agent not in exclude. Each
// agent's own SendMessage already surfaces its own error event, so the
// errgroup here never needs to short-circuit siblings on failure.
func (m *Manager) Broadcast(ctx context.Context, message string, exclude map[string]bool) {
	m.mu.RLock()
	paneIDs := make([]string, 0, len(m.agents))
	for id := range m.agents {
		if !exclude[id] {
			paneIDs = append(paneIDs, id)
		}
	}
	m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range paneIDs {
		id := id
		g.Go(func() error {
			m.SendMessage(gctx, id, message)
			return nil
		})
	}
	g.Wait()
}

// RestartAgent disconnects the existing agent, swallowing any error,
// constructs a fresh instance from the same role config, and reconnects
// without a resume token.
func (m *Manager) RestartAgent(ctx context.Context, paneID string) {
	m.mu.Lock()
	old, ok := m.agents[paneID]
	if !ok {
		m.mu.Unlock()
		m.writer.Emit(events.ErrWithType(fmt.Sprintf("unknown pane: %s", paneID), "protocol"), paneID, "")
		return
	}
	role := old.Role()
	m.mu.Unlock()

	old.Disconnect(ctx)

	fresh := m.factory.Build(role)
	if err := fresh.Connect(ctx, ""); err != nil {
		m.writer.Emit(events.Err(fmt.Sprintf("restart failed: %v", err)), paneID, role.RoleName)
		return
	}

	m.mu.Lock()
	m.agents[paneID] = fresh
	m.mu.Unlock()

	m.writer.Emit(events.Event{Type: events.TypeAgentRestarted, Model: string(role.ModelKind)}, paneID, role.RoleName)
	m.writer.Emit(events.Event{Type: events.TypeStatus, State: events.StatusIdle, Message: "Restarted"}, paneID, role.RoleName)
}

// InterruptAgent dispatches to the agent's cooperative Interrupt.
func (m *Manager) InterruptAgent(ctx context.Context, paneID string) {
	a, ok := m.lookup(paneID)
	if !ok {
		m.writer.Emit(events.ErrWithType(fmt.Sprintf("unknown pane: %s", paneID), "protocol"), paneID, "")
		return
	}
	role := a.Role()
	if a.Interrupt() {
		m.writer.Emit(events.Event{Type: events.TypeInterrupted}, paneID, role.RoleName)
	} else {
		m.writer.Emit(events.Event{Type: events.TypeWarning, Message: "does not support interrupt"}, paneID, role.RoleName)
	}
}

// GetSessions synchronously emits the current in-memory session map for
// every agent (not necessarily what is on disk, since tokens update mid-turn).
func (m *Manager) GetSessions() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make(map[string]string, len(m.agents))
	for id, a := range m.agents {
		sessions[id] = a.GetSessionID()
	}
	m.writer.EmitRaw(events.Event{Type: events.TypeSessions, Sessions: sessions})
}

// StopAll disconnects every agent, persists the collected session tokens,
// and emits all_stopped.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make(map[string]string, len(m.agents))
	for id, a := range m.agents {
		sessions[id] = a.Disconnect(ctx)
		m.writer.Emit(events.Event{Type: events.TypeStatus, State: events.StatusDisconnected}, id, a.Role().RoleName)
	}

	saveErr := m.store.Save(sessions)
	if saveErr != nil && m.log != nil {
		m.log.Warn("failed to persist sessions on shutdown", zap.Error(saveErr))
	}
	m.writer.EmitRaw(events.Event{Type: events.TypeAllStopped, SessionsSaved: boolPtr(saveErr == nil)})
}

// Ready emits the ready{agents} resync event.
func (m *Manager) Ready() {
	m.writer.EmitRaw(events.Event{Type: events.TypeReady, Agents: m.PaneIDs()})
}
