// Package tabstate is the pure tab-state reducer: a family of functions
// from an immutable Session value to a new Session value, mirroring the
// set of PTY-backed sessions the supervisor package owns without touching
// any OS resource itself. No function in this package performs I/O.
package tabstate

import "strconv"

// TabKind distinguishes the two unified-tab-order participants this
// package models. File tabs and other carry-through kinds mentioned in
// SPEC_FULL.md exist in a host application's own state but are out of
// scope for this reducer.
type TabKind string

const (
	KindTerminal TabKind = "terminal"
	KindAI       TabKind = "ai"
)

// TerminalTab is the UI-visible counterpart to a supervisor SessionRecord.
type TerminalTab struct {
	ID             string
	Cwd            string
	Name           string
	ProcessRunning bool
	ExitCode       *int
}

// AITab is the minimal reducer-side counterpart to an AgentProcess
// session: just enough state to participate in UnifiedTabOrder and to
// serve as the fallback active tab when every terminal tab is closed.
type AITab struct {
	ID   string
	Name string
}

// UnifiedTabRef is one entry in Session.UnifiedTabOrder.
type UnifiedTabRef struct {
	Kind TabKind
	ID   string
}

// ClosedTabSnapshot preserves enough state to reconstruct a closed tab on
// reopen. Ids recorded here are dead: reopen always mints a new id.
type ClosedTabSnapshot struct {
	Kind TabKind
	Cwd  string
	Name string
}

// Session is the reducer's entire immutable state. Every operation in
// this package returns a new Session; the one passed in is never mutated.
type Session struct {
	TerminalTabs        []TerminalTab
	ActiveTerminalTabID string // empty means none

	AITabs         []AITab
	DefaultAITabID string

	ActiveTabKind TabKind
	ActiveTabID   string

	UnifiedTabOrder         []UnifiedTabRef
	UnifiedClosedTabHistory []ClosedTabSnapshot

	nextID uint64
}

const closedTabHistoryLimit = 50

// NewSession returns an empty Session seeded with a single default AI tab,
// matching SPEC_FULL.md's "the default AI tab becomes the overall active
// tab" fallback, which requires one to always exist.
func NewSession() Session {
	s := Session{nextID: 1}
	id := s.mintID()
	defaultAI := AITab{ID: id, Name: "Assistant"}
	s.AITabs = []AITab{defaultAI}
	s.DefaultAITabID = id
	s.ActiveTabKind = KindAI
	s.ActiveTabID = id
	s.UnifiedTabOrder = []UnifiedTabRef{{Kind: KindAI, ID: id}}
	return s
}

// mintID returns a new reducer-local id, distinct from supervisor session
// ids (the two id spaces are independent generators, per SPEC_FULL.md).
// Copy-on-write callers must assign the returned Session back; mintID
// itself mutates only the receiver's copy, never the caller's original.
func (s *Session) mintID() string {
	s.nextID++
	return idPrefix + strconv.FormatUint(s.nextID-1, 10)
}

const idPrefix = "tab-"

func (s Session) clone() Session {
	cp := s
	cp.TerminalTabs = append([]TerminalTab(nil), s.TerminalTabs...)
	cp.AITabs = append([]AITab(nil), s.AITabs...)
	cp.UnifiedTabOrder = append([]UnifiedTabRef(nil), s.UnifiedTabOrder...)
	cp.UnifiedClosedTabHistory = append([]ClosedTabSnapshot(nil), s.UnifiedClosedTabHistory...)
	return cp
}

func (s Session) findTerminalIndex(id string) int {
	for i, t := range s.TerminalTabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s Session) findUnifiedIndex(kind TabKind, id string) int {
	for i, r := range s.UnifiedTabOrder {
		if r.Kind == kind && r.ID == id {
			return i
		}
	}
	return -1
}
