// Package supervisor owns a population of PTY-backed child processes and
// routes their byte streams and lifecycle events to subscribers keyed by
// opaque session ids. It is the process-management core of the terminal
// session supervisor: spawn/write/resize/interrupt/kill/kill-all, event
// fan-out, and exit reaping, with single-kill and exit-once guarantees.
package supervisor

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Kind distinguishes terminal tabs from agent processes. Both share the
// same lifecycle machinery; only the event stream they publish on differs.
type Kind string

const (
	KindTerminalTab  Kind = "terminal-tab"
	KindAgentProcess Kind = "agent-process"
)

// DataChunk is a chunk of PTY output retained for history replay.
type DataChunk struct {
	Sequence  int64
	Data      []byte
	Timestamp int64
	Size      int
}

// RecordView is the public, read-only snapshot returned by Get/GetAll. It
// never aliases the live PTY handle.
type RecordView struct {
	SessionID  string
	PID        int
	Cwd        string
	Kind       Kind
	Name       string
	CreatedAt  time.Time
	LastActive time.Time
	IsActive   bool
}

// TerminalSpawnConfig configures a new terminal-tab session.
type TerminalSpawnConfig struct {
	SessionID string
	Cwd       string
	Shell     string
	ShellArgs []string
	ShellEnv  map[string]string
	Cols      int
	Rows      int
	Name      string
}

// AgentSpawnConfig configures a generic, non-terminal supervised process.
// ToolType "embedded-terminal" is reserved for terminal tabs; any other
// value produces a KindAgentProcess record.
type AgentSpawnConfig struct {
	SessionID string
	Cwd       string
	ToolType  string
	Command   string
	Args      []string
	Env       map[string]string
	Cols      int
	Rows      int
}

// SpawnResult is the in-band result of a spawn attempt.
type SpawnResult struct {
	Success bool
	PID     int
	Error   string
}

// session is the supervisor-owned record: {session_id, pty, pid, cwd, kind}
// plus the bookkeeping needed to implement the ring buffer, workdir
// tracking, input dedup, and multi-connection size negotiation described in
// SPEC_FULL.md.
type session struct {
	id   string
	kind Kind

	cwd  string
	name string
	pid  int

	pty *os.File
	cmd *exec.Cmd

	createdAt  time.Time
	lastActive time.Time

	mu       sync.RWMutex
	isActive bool

	ctx    context.Context
	cancel context.CancelFunc

	waitDone        chan struct{}
	killedByCaller  bool
	explicitKillErr error

	connections map[string]*connectionInfo

	ringBuffer *ringBuffer

	currentWorkingDir string

	isResizing    bool
	resizeEndTime time.Time

	lastInputSource string
	lastInputTime   time.Time
	lastInputHash   [32]byte
	lastInputLen    int
	inputWindow     time.Duration

	sequenceNumber int64

	cfg sessionConfig

	// Set by the Manager at creation time so the read loop can publish
	// events without reaching back into the Manager's own locking.
	onData        func(chunk DataChunk)
	onAgentData   func(chunk DataChunk)
	onExit        func(exitCode int, signal string)
	onNameChanged func(name string)
	onError       func(err error)
}

// connectionInfo records a single attached renderer connection for
// per-connection size negotiation (SPEC_FULL.md §4.B).
type connectionInfo struct {
	connID   string
	joinedAt time.Time
	cols     int
	rows     int
}
