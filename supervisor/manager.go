package supervisor

import (
	"fmt"
	"sync"
)

// Manager is the single entry point onto a population of supervised PTY
// sessions. Every public method is synchronous, and every method other than
// GetAll and KillAll touches at most one session's record, per spec.md's
// routing-isolation invariant: a slow or
// failing operation against one session can never block, delay, or
// corrupt another session's state.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	events *eventBus

	sessions     map[string]*session
	sessionOrder []string
}

// NewManager constructs a Manager. A zero Config is valid; every field
// defaults per Config.applyDefaults.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg.applyDefaults(),
		events:   newEventBus(),
		sessions: make(map[string]*session),
	}
}

// CreateTerminalTab spawns a new shell-backed session.
func (m *Manager) CreateTerminalTab(spawnCfg TerminalSpawnConfig) (SpawnResult, error) {
	id := spawnCfg.SessionID
	if id == "" {
		id = generateSessionID()
	}
	spawnCfg.SessionID = id

	sessCfg := newSessionConfig(m.cfg)
	s, err := newTerminalSession(id, spawnCfg, sessCfg)
	if err != nil {
		return SpawnResult{Success: false, Error: err.Error()}, err
	}

	m.register(s)
	return SpawnResult{Success: true, PID: s.pid}, nil
}

// Spawn starts a generic supervised process. A ToolType other than
// "embedded-terminal" produces a KindAgentProcess record that publishes on
// agent-data instead of raw-pty-data.
func (m *Manager) Spawn(spawnCfg AgentSpawnConfig) (SpawnResult, error) {
	id := spawnCfg.SessionID
	if id == "" {
		id = generateSessionID()
	}
	spawnCfg.SessionID = id

	sessCfg := newSessionConfig(m.cfg)
	s, err := newAgentSession(id, spawnCfg, sessCfg)
	if err != nil {
		return SpawnResult{Success: false, Error: err.Error()}, err
	}

	m.register(s)
	return SpawnResult{Success: true, PID: s.pid}, nil
}

func (m *Manager) register(s *session) {
	id := s.id

	s.onData = func(chunk DataChunk) { m.events.emitData(id, chunk) }
	s.onAgentData = func(chunk DataChunk) { m.events.emitAgentData(id, chunk) }
	s.onNameChanged = func(name string) { m.events.emitNameChanged(id, name) }
	s.onError = func(err error) { m.events.emitError(id, err) }
	s.onExit = func(exitCode int, signal string) {
		m.removeSession(id)
		m.events.emitExit(id, exitCode, signal)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.sessionOrder = append(m.sessionOrder, id)
	m.mu.Unlock()
}

// removeSession deletes the record before any exit event is emitted, so a
// listener reacting to exit never observes a Get/GetAll that still
// includes the dead session.
func (m *Manager) removeSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	for i, sid := range m.sessionOrder {
		if sid == id {
			m.sessionOrder = append(m.sessionOrder[:i], m.sessionOrder[i+1:]...)
			break
		}
	}
}

func (m *Manager) get(id string) (*session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s, nil
}

// Get returns a point-in-time snapshot of one session's record.
func (m *Manager) Get(id string) (RecordView, error) {
	s, err := m.get(id)
	if err != nil {
		return RecordView{}, err
	}
	return s.view(), nil
}

// GetAll returns snapshots of every live session, in creation order.
func (m *Manager) GetAll() []RecordView {
	m.mu.Lock()
	ids := append([]string(nil), m.sessionOrder...)
	sessions := make([]*session, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.sessions[id]; ok {
			sessions = append(sessions, s)
		}
	}
	m.mu.Unlock()

	out := make([]RecordView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.view())
	}
	return out
}

// Write delivers input to a session's PTY. source identifies the
// connection/origin for input-dedup purposes.
func (m *Manager) Write(id string, data []byte, source string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	return s.write(data, source)
}

// Resize negotiates a new PTY size directly (single-connection callers).
// Multi-connection callers should use AddConnection/UpdateConnectionSize
// instead so the PTY tracks the minimum across all attached connections.
func (m *Manager) Resize(id string, cols, rows int) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	return s.resize(cols, rows)
}

// Interrupt writes the single byte 0x03 (ETX) to a session's PTY, the same
// as the user pressing Ctrl+C; no OS signal is sent.
func (m *Manager) Interrupt(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	return s.interrupt()
}

// Kill terminates one session and removes its record synchronously, so the
// session_id is dead before Kill returns: a second Kill, or any Write/
// Resize/Interrupt against the same id, finds nothing and fails. Removal
// happens here rather than via the exit callback because kill must not
// also fire an exit event (runReaderReaper's own reap of this same process
// observes killedByCaller and skips onExit).
func (m *Manager) Kill(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	err = s.kill()
	m.removeSession(id)
	return err
}

// KillAll terminates every live session and empties the map. Individual
// failures don't stop the sweep; the first error encountered, if any, is
// returned after every session has been asked to die and removed.
func (m *Manager) KillAll() error {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.kill(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.removeSession(s.id)
	}
	return firstErr
}

// RenameSession sets a session's display name directly (as opposed to the
// name being auto-derived from shell-integration sequences).
func (m *Manager) RenameSession(id string, name string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.rename(name)
	m.events.emitNameChanged(id, name)
	return nil
}

// GetHistory returns every retained, filtered output chunk for a session.
func (m *Manager) GetHistory(id string) ([]DataChunk, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return s.historyChunks(), nil
}

// GetHistoryFromSequence returns filtered chunks with Sequence > afterSeq,
// letting a reconnecting client ask for only what it missed.
func (m *Manager) GetHistoryFromSequence(id string, afterSeq int64) ([]DataChunk, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return s.historyFromSequence(afterSeq), nil
}

// ClearHistory discards a session's retained scrollback without affecting
// the running process.
func (m *Manager) ClearHistory(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.clearHistory()
	return nil
}

// AddConnection registers a newly attached renderer connection and
// renegotiates PTY size to the minimum across all attached connections.
func (m *Manager) AddConnection(id, connID string, cols, rows int) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	return s.addConnection(connID, cols, rows)
}

// RemoveConnection detaches a renderer connection.
func (m *Manager) RemoveConnection(id, connID string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	return s.removeConnection(connID)
}

// UpdateConnectionSize updates one connection's requested size and
// renegotiates the PTY size.
func (m *Manager) UpdateConnectionSize(id, connID string, cols, rows int) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	return s.updateConnectionSize(connID, cols, rows)
}

// On subscribes to one of the EventRawPTYData/EventAgentData/EventExit/
// EventNameChanged/EventError event streams, mirroring spec.md's literal
// on(event, listener) API shape.
func (m *Manager) On(event string, listener any) (*Subscription, error) {
	return m.events.On(event, listener)
}
