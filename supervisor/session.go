package supervisor

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const killGracePeriod = 3 * time.Second

// newTerminalSession spawns a login-shell PTY session. The teacher's
// terminal-go library split this across startPTY/readPTYOutput/
// waitProcessExit running as two independent goroutines; here the read
// loop and the reap are unified into a single goroutine (runReaderReaper)
// so "exit always follows every raw-pty-data event for that session" holds
// by construction instead of by scheduling luck.
func newTerminalSession(id string, spawnCfg TerminalSpawnConfig, cfg sessionConfig) (*session, error) {
	shellPath := spawnCfg.Shell
	if shellPath == "" {
		shellPath = cfg.shellResolver.ResolveShell(cfg.logger)
	}

	env, pathPrepend, err := cfg.envProvider.BuildEnv(shellPath, spawnCfg.Cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}
	env = applyTerminalEnv(env, cfg.terminalEnv)
	for k, v := range spawnCfg.ShellEnv {
		env = append(env, k+"="+v)
	}

	args, extraEnv := cfg.shellArgsProvider.GetShellArgs(shellPath, pathPrepend)
	if len(spawnCfg.ShellArgs) > 0 {
		args = spawnCfg.ShellArgs
	}
	env = append(env, extraEnv...)

	if pathPrepend != "" {
		if err := cfg.shellInitWriter.EnsureShellInitFiles(pathPrepend); err != nil {
			cfg.logger.Warn("failed to write shell init files", "error", err)
		}
		env = append(env, pathPrependEnvKey+"="+pathPrepend)
	}

	cmd := exec.Command(shellPath, args...)
	cmd.Env = env
	cmd.Dir = spawnCfg.Cwd

	cols, rows := clampTerminalSize(spawnCfg.Cols, spawnCfg.Rows)
	return startSession(id, KindTerminalTab, spawnCfg.Cwd, spawnCfg.Name, cmd, cols, rows, cfg)
}

// newAgentSession spawns a supervised non-terminal process directly,
// bypassing shell resolution entirely: the command and args are executed
// as given.
func newAgentSession(id string, spawnCfg AgentSpawnConfig, cfg sessionConfig) (*session, error) {
	cmd := exec.Command(spawnCfg.Command, spawnCfg.Args...)
	cmd.Dir = spawnCfg.Cwd

	env := os.Environ()
	for k, v := range spawnCfg.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	cols, rows := clampTerminalSize(spawnCfg.Cols, spawnCfg.Rows)
	name := spawnCfg.Command
	return startSession(id, KindAgentProcess, spawnCfg.Cwd, name, cmd, cols, rows, cfg)
}

func startSession(id string, kind Kind, cwd, name string, cmd *exec.Cmd, cols, rows int, cfg sessionConfig) (*session, error) {
	f, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return nil, fmt.Errorf("failed to start pty: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	s := &session{
		id:                id,
		kind:              kind,
		cwd:               cwd,
		name:              name,
		pid:               cmd.Process.Pid,
		pty:               f,
		cmd:               cmd,
		createdAt:         now,
		lastActive:        now,
		isActive:          true,
		ctx:               ctx,
		cancel:            cancel,
		waitDone:          make(chan struct{}),
		connections:       make(map[string]*connectionInfo),
		ringBuffer:        newRingBuffer(cfg.historyBufferSize),
		currentWorkingDir: cwd,
		inputWindow:       cfg.inputWindow,
		cfg:               cfg,
	}

	go s.runReaderReaper()

	return s, nil
}

func applyTerminalEnv(env []string, te TerminalEnv) []string {
	out := make([]string, 0, len(env)+8)
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") || strings.HasPrefix(kv, "COLORTERM=") ||
			strings.HasPrefix(kv, "LANG=") || strings.HasPrefix(kv, "LC_ALL=") ||
			strings.HasPrefix(kv, "TERM_PROGRAM=") || strings.HasPrefix(kv, "TERM_PROGRAM_VERSION=") ||
			strings.HasPrefix(kv, "TERMINFO=") {
			continue
		}
		out = append(out, kv)
	}
	out = append(out,
		"TERM="+te.Term,
		"COLORTERM="+te.ColorTerm,
		"LANG="+te.Lang,
		"LC_ALL="+te.LcAll,
		"TERM_PROGRAM="+te.TermProgram,
		"TERM_PROGRAM_VERSION="+te.TermProgramVersion,
		"TERMINFO="+te.Terminfo,
	)
	return out
}

// runReaderReaper reads PTY output until EOF/error, then synchronously
// reaps the child. This single-goroutine design is the one deliberate
// structural departure from the teacher: it guarantees exit is emitted
// only after every data chunk for this session has already been
// broadcast, because the same goroutine does both in order.
func (s *session) runReaderReaper() {
	defer close(s.waitDone)

	buf := make([]byte, 32*1024)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			s.handleOutput(buf[:n])
		}
		if err != nil {
			break
		}
	}

	exitCode, signal := s.reap()

	s.mu.Lock()
	s.isActive = false
	killed := s.killedByCaller
	cb := s.onExit
	s.mu.Unlock()

	if killed {
		return
	}
	if cb != nil {
		cb(exitCode, signal)
	}
}

func (s *session) handleOutput(data []byte) {
	chunk := DataChunk{
		Sequence:  atomic.AddInt64(&s.sequenceNumber, 1),
		Data:      append([]byte(nil), data...),
		Timestamp: time.Now().UnixMilli(),
		Size:      len(data),
	}

	s.ringBuffer.write(chunk.Data)

	s.mu.Lock()
	s.lastActive = time.Now()
	cbData, cbAgent := s.onData, s.onAgentData
	kind := s.kind
	s.mu.Unlock()

	if kind == KindTerminalTab {
		s.checkWorkingDirectoryChange(data)
		if cbData != nil {
			cbData(chunk)
		}
	} else if cbAgent != nil {
		cbAgent(chunk)
	}
}

// reap waits for the child and classifies how it ended: 0 for a clean
// exit, the shell's own exit code for a normal nonzero exit, or 128+N
// for termination by signal N, matching common shell/POSIX convention.
func (s *session) reap() (exitCode int, signal string) {
	err := s.cmd.Wait()
	s.pty.Close()

	if err == nil {
		return 0, ""
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				sig := ws.Signal()
				return 128 + int(sig), sig.String()
			}
			return ws.ExitStatus(), ""
		}
		return exitErr.ExitCode(), ""
	}

	return -1, ""
}

// write delivers input to the PTY, deduplicating identical payloads from
// the same source received within the configured input window. This
// guards against double-delivery when a client races a reconnect or when
// more than one connection forwards the same keystroke.
func (s *session) write(data []byte, source string) error {
	if len(data) == 0 {
		return nil
	}

	hash := sha256.Sum256(data)
	now := time.Now()

	s.mu.Lock()
	if s.lastInputSource == source &&
		s.lastInputHash == hash &&
		s.lastInputLen == len(data) &&
		now.Sub(s.lastInputTime) < s.inputWindow {
		s.mu.Unlock()
		return nil
	}
	s.lastInputSource = source
	s.lastInputHash = hash
	s.lastInputLen = len(data)
	s.lastInputTime = now
	s.lastActive = now
	f := s.pty
	s.mu.Unlock()

	if f == nil {
		return fmt.Errorf("session %s has no active pty", s.id)
	}
	_, err := f.Write(data)
	return err
}

func (s *session) resize(cols, rows int) error {
	if err := validateTerminalSize(cols, rows); err != nil {
		cols, rows = clampTerminalSize(cols, rows)
	}
	return s.resizePTYToSizeWithSuppression(cols, rows, s.cfg.resizeSuppressDuration)
}

// interrupt writes the single byte 0x03 (ETX) to the PTY, equivalent to
// the user pressing Ctrl+C. Defined as a write rather than a signal so the
// semantics are identical whether the child is a shell, an agent process,
// or any other interactive program attached to the PTY.
func (s *session) interrupt() error {
	return s.write([]byte{0x03}, "supervisor-interrupt")
}

// kill terminates the session synchronously: SIGTERM, a grace period, then
// SIGKILL. Setting killedByCaller before signaling ensures the
// runReaderReaper goroutine's own reap (which races this call) becomes a
// no-op once it observes the flag, so exit is never emitted twice.
func (s *session) kill() error {
	s.mu.Lock()
	if s.killedByCaller {
		s.mu.Unlock()
		return nil
	}
	s.killedByCaller = true
	proc := s.cmd.Process
	s.mu.Unlock()

	s.cancel()

	if proc == nil {
		return nil
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.mu.Lock()
		s.explicitKillErr = err
		s.mu.Unlock()
	}

	select {
	case <-s.waitDone:
		return nil
	case <-time.After(killGracePeriod):
	}

	if err := proc.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.mu.Lock()
		s.explicitKillErr = err
		s.mu.Unlock()
	}

	<-s.waitDone
	return nil
}

func (s *session) view() RecordView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RecordView{
		SessionID:  s.id,
		PID:        s.pid,
		Cwd:        s.cwd,
		Kind:       s.kind,
		Name:       s.name,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		IsActive:   s.isActive,
	}
}

func (s *session) rename(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// historyChunks returns all retained output chunks with the session's
// history filter applied, suitable for replay to a newly attached client.
func (s *session) historyChunks() []DataChunk {
	chunks := s.ringBuffer.readAll()
	filter := s.cfg.historyFilter
	for i := range chunks {
		chunks[i].Data = filter.Filter(chunks[i].Data)
	}
	return chunks
}

// historyFromSequence returns chunks with Sequence > afterSeq, filtered
// the same way historyChunks is.
func (s *session) historyFromSequence(afterSeq int64) []DataChunk {
	all := s.historyChunks()
	out := all[:0:0]
	for _, c := range all {
		if c.Sequence > afterSeq {
			out = append(out, c)
		}
	}
	return out
}

func (s *session) clearHistory() {
	s.ringBuffer.clear()
}

var errSessionClosed = io.EOF
