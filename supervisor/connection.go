package supervisor

import (
	"fmt"
	"time"

	"github.com/creack/pty"
)

// addConnection registers a new attached connection and negotiates the PTY
// size down to the minimum requested by all attached connections, per
// SPEC_FULL.md §4.B's multi-connection size negotiation rule.
func (s *session) addConnection(connID string, cols, rows int) error {
	cols, rows = clampTerminalSize(cols, rows)

	s.mu.Lock()
	s.connections[connID] = &connectionInfo{
		connID:   connID,
		joinedAt: time.Now(),
		cols:     cols,
		rows:     rows,
	}
	minCols, minRows := s.minimumTerminalSizeLocked()
	s.mu.Unlock()

	return s.resizePTYToSizeWithSuppression(minCols, minRows, s.cfg.initialResizeSuppressDuration)
}

func (s *session) removeConnection(connID string) error {
	s.mu.Lock()
	delete(s.connections, connID)
	if len(s.connections) == 0 {
		s.mu.Unlock()
		return nil
	}
	minCols, minRows := s.minimumTerminalSizeLocked()
	s.mu.Unlock()

	return s.resizePTYToSizeWithSuppression(minCols, minRows, s.cfg.resizeSuppressDuration)
}

func (s *session) updateConnectionSize(connID string, cols, rows int) error {
	cols, rows = clampTerminalSize(cols, rows)

	s.mu.Lock()
	conn, ok := s.connections[connID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown connection: %s", connID)
	}
	conn.cols, conn.rows = cols, rows
	minCols, minRows := s.minimumTerminalSizeLocked()
	s.mu.Unlock()

	return s.resizePTYToSizeWithSuppression(minCols, minRows, s.cfg.resizeSuppressDuration)
}

// minimumTerminalSizeLocked returns the minimum cols/rows across all
// attached connections, falling back to the default grid if none are
// attached (caller must hold s.mu).
func (s *session) minimumTerminalSizeLocked() (int, int) {
	if len(s.connections) == 0 {
		return defaultCols, defaultRows
	}
	minCols, minRows := maxTerminalCols+1, maxTerminalRows+1
	for _, conn := range s.connections {
		if conn.cols < minCols {
			minCols = conn.cols
		}
		if conn.rows < minRows {
			minRows = conn.rows
		}
	}
	return minCols, minRows
}

// resizePTYToSizeWithSuppression applies a resize to the PTY. A call is
// skipped (returning nil) while an earlier resize is still in progress and
// that earlier call's suppressFor window has not elapsed; once the earlier
// resize has finished, the next call is applied. The requested size is not
// compared with the current one.
func (s *session) resizePTYToSizeWithSuppression(cols, rows int, suppressFor time.Duration) error {
	s.mu.Lock()
	if s.isResizing && time.Now().Before(s.resizeEndTime) {
		s.mu.Unlock()
		return nil
	}
	s.isResizing = true
	s.resizeEndTime = time.Now().Add(suppressFor)
	f := s.pty
	s.mu.Unlock()

	if f == nil {
		return nil
	}

	err := pty.Setsize(f, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})

	s.mu.Lock()
	s.isResizing = false
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to resize pty: %w", err)
	}
	return nil
}
