package tabstate

// CreateTerminalTabConfig configures a new terminal tab.
type CreateTerminalTabConfig struct {
	Cwd  string
	Name string
}

// CreateTerminalTab appends a new TerminalTab with a freshly minted id,
// makes it active, and records it in UnifiedTabOrder.
func CreateTerminalTab(session Session, cfg CreateTerminalTabConfig) (Session, TerminalTab) {
	s := session.clone()
	id := s.mintID()

	tab := TerminalTab{
		ID:             id,
		Cwd:            cfg.Cwd,
		Name:           cfg.Name,
		ProcessRunning: true,
	}

	s.TerminalTabs = append(s.TerminalTabs, tab)
	s.ActiveTerminalTabID = id
	s.ActiveTabKind = KindTerminal
	s.ActiveTabID = id
	s.UnifiedTabOrder = append(s.UnifiedTabOrder, UnifiedTabRef{Kind: KindTerminal, ID: id})

	return s, tab
}

// CloseTerminalTab removes tab_id from TerminalTabs, archives a snapshot
// onto the closed-tab LIFO history, and elects a new active tab by
// SPEC_FULL.md's policy: prefer the right neighbour, then the left, then
// fall back to the default AI tab. Returns ok=false if tab_id isn't found.
func CloseTerminalTab(session Session, tabID string) (Session, bool) {
	idx := session.findTerminalIndex(tabID)
	if idx < 0 {
		return session, false
	}

	s := session.clone()
	closed := s.TerminalTabs[idx]

	s.TerminalTabs = append(s.TerminalTabs[:idx:idx], s.TerminalTabs[idx+1:]...)

	if uidx := s.findUnifiedIndex(KindTerminal, tabID); uidx >= 0 {
		s.UnifiedTabOrder = append(s.UnifiedTabOrder[:uidx:uidx], s.UnifiedTabOrder[uidx+1:]...)
	}

	s.UnifiedClosedTabHistory = append(s.UnifiedClosedTabHistory, ClosedTabSnapshot{
		Kind: KindTerminal,
		Cwd:  closed.Cwd,
		Name: closed.Name,
	})
	if len(s.UnifiedClosedTabHistory) > closedTabHistoryLimit {
		s.UnifiedClosedTabHistory = s.UnifiedClosedTabHistory[len(s.UnifiedClosedTabHistory)-closedTabHistoryLimit:]
	}

	if s.ActiveTerminalTabID == tabID {
		s.electActiveAfterClose(idx)
	}

	return s, true
}

// electActiveAfterClose implements the "prefer right neighbour, else left,
// else default AI tab" policy. idx is the removed tab's former position in
// the pre-removal TerminalTabs slice.
func (s *Session) electActiveAfterClose(idx int) {
	switch {
	case idx < len(s.TerminalTabs):
		next := s.TerminalTabs[idx]
		s.ActiveTerminalTabID = next.ID
		s.ActiveTabKind = KindTerminal
		s.ActiveTabID = next.ID
	case idx > 0:
		prev := s.TerminalTabs[idx-1]
		s.ActiveTerminalTabID = prev.ID
		s.ActiveTabKind = KindTerminal
		s.ActiveTabID = prev.ID
	default:
		s.ActiveTerminalTabID = ""
		s.ActiveTabKind = KindAI
		s.ActiveTabID = s.DefaultAITabID
	}
}

// ReopenUnifiedClosedTab pops the most recent closed-tab snapshot and
// reconstructs it with a freshly minted id and reset runtime fields.
// Returns ok=false if the history is empty.
func ReopenUnifiedClosedTab(session Session) (result Session, tabID string, tabKind TabKind, ok bool) {
	if len(session.UnifiedClosedTabHistory) == 0 {
		return session, "", "", false
	}

	s := session.clone()
	last := len(s.UnifiedClosedTabHistory) - 1
	snap := s.UnifiedClosedTabHistory[last]
	s.UnifiedClosedTabHistory = s.UnifiedClosedTabHistory[:last]

	switch snap.Kind {
	case KindTerminal:
		id := s.mintID()
		tab := TerminalTab{
			ID:             id,
			Cwd:            snap.Cwd,
			Name:           snap.Name,
			ProcessRunning: false,
		}
		s.TerminalTabs = append(s.TerminalTabs, tab)
		s.UnifiedTabOrder = append(s.UnifiedTabOrder, UnifiedTabRef{Kind: KindTerminal, ID: id})
		s.ActiveTerminalTabID = id
		s.ActiveTabKind = KindTerminal
		s.ActiveTabID = id
		return s, id, KindTerminal, true
	default:
		// Unknown/unsupported snapshot kinds are dropped rather than
		// reconstructed; nothing in this package produces one today.
		return s, "", "", false
	}
}

// NavigateToNextUnifiedTab rotates the active tab forward through
// UnifiedTabOrder, wrapping at the end.
func NavigateToNextUnifiedTab(session Session) Session {
	return session.navigateUnified(1)
}

// NavigateToPrevUnifiedTab rotates the active tab backward through
// UnifiedTabOrder, wrapping at the start.
func NavigateToPrevUnifiedTab(session Session) Session {
	return session.navigateUnified(-1)
}

func (session Session) navigateUnified(delta int) Session {
	n := len(session.UnifiedTabOrder)
	if n == 0 {
		return session
	}

	cur := session.findUnifiedIndex(session.ActiveTabKind, session.ActiveTabID)
	if cur < 0 {
		cur = 0
	}

	next := ((cur+delta)%n + n) % n
	s := session.clone()
	s.setActiveFromUnifiedRef(s.UnifiedTabOrder[next])
	return s
}

func (s *Session) setActiveFromUnifiedRef(ref UnifiedTabRef) {
	s.ActiveTabKind = ref.Kind
	s.ActiveTabID = ref.ID
	if ref.Kind == KindTerminal {
		s.ActiveTerminalTabID = ref.ID
	} else {
		s.ActiveTerminalTabID = ""
	}
}

// NavigateToUnifiedTabByIndex performs a 1-based positional select.
// Returns ok=false for an out-of-range index.
func NavigateToUnifiedTabByIndex(session Session, index int) (Session, bool) {
	if index < 1 || index > len(session.UnifiedTabOrder) {
		return session, false
	}
	s := session.clone()
	s.setActiveFromUnifiedRef(s.UnifiedTabOrder[index-1])
	return s, true
}

// CloseOtherTerminalTabs closes every terminal tab except keepID.
func CloseOtherTerminalTabs(session Session, keepID string) Session {
	s := session
	for _, t := range append([]TerminalTab(nil), s.TerminalTabs...) {
		if t.ID == keepID {
			continue
		}
		s, _ = CloseTerminalTab(s, t.ID)
	}
	return s
}

// CloseTerminalTabsToRight closes every terminal tab appearing after
// pivotID in TerminalTabs order.
func CloseTerminalTabsToRight(session Session, pivotID string) Session {
	idx := session.findTerminalIndex(pivotID)
	if idx < 0 {
		return session
	}
	s := session
	toClose := append([]TerminalTab(nil), s.TerminalTabs[idx+1:]...)
	for _, t := range toClose {
		s, _ = CloseTerminalTab(s, t.ID)
	}
	return s
}

// RenameTerminalTab sets a terminal tab's display name. Returns ok=false
// if tabID isn't found.
func RenameTerminalTab(session Session, tabID, name string) (Session, bool) {
	idx := session.findTerminalIndex(tabID)
	if idx < 0 {
		return session, false
	}
	s := session.clone()
	s.TerminalTabs[idx].Name = name
	return s, true
}

// MarkTerminalTabExited records a natural PTY exit on the matching tab's
// UI-visible fields: ProcessRunning becomes false and ExitCode is set. The
// tab stays in TerminalTabs until it is closed.
func MarkTerminalTabExited(session Session, tabID string, exitCode int) (Session, bool) {
	idx := session.findTerminalIndex(tabID)
	if idx < 0 {
		return session, false
	}
	s := session.clone()
	ec := exitCode
	s.TerminalTabs[idx].ProcessRunning = false
	s.TerminalTabs[idx].ExitCode = &ec
	return s, true
}

// CreateAITab appends a new AITab, enough to exercise UnifiedTabOrder
// permutation invariants and the "falls back to default AI tab" rule.
func CreateAITab(session Session, name string) (Session, AITab) {
	s := session.clone()
	id := s.mintID()
	tab := AITab{ID: id, Name: name}
	s.AITabs = append(s.AITabs, tab)
	s.UnifiedTabOrder = append(s.UnifiedTabOrder, UnifiedTabRef{Kind: KindAI, ID: id})
	s.ActiveTabKind = KindAI
	s.ActiveTabID = id
	s.ActiveTerminalTabID = ""
	return s, tab
}

// CloseAITab removes an AI tab. The default AI tab (created by NewSession)
// can never be closed: it is the fallback active tab and must always
// exist.
func CloseAITab(session Session, tabID string) (Session, bool) {
	if tabID == session.DefaultAITabID {
		return session, false
	}

	idx := -1
	for i, t := range session.AITabs {
		if t.ID == tabID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return session, false
	}

	s := session.clone()
	s.AITabs = append(s.AITabs[:idx:idx], s.AITabs[idx+1:]...)
	if uidx := s.findUnifiedIndex(KindAI, tabID); uidx >= 0 {
		s.UnifiedTabOrder = append(s.UnifiedTabOrder[:uidx:uidx], s.UnifiedTabOrder[uidx+1:]...)
	}

	if s.ActiveTabKind == KindAI && s.ActiveTabID == tabID {
		s.ActiveTabKind = KindAI
		s.ActiveTabID = s.DefaultAITabID
	}

	return s, true
}
