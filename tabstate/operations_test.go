package tabstate

import "testing"

func TestCreateTerminalTabAppendsAndActivates(t *testing.T) {
	s := NewSession()
	s, tab := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/home/user", Name: "shell"})

	if len(s.TerminalTabs) != 1 {
		t.Fatalf("expected 1 terminal tab, got %d", len(s.TerminalTabs))
	}
	if s.ActiveTerminalTabID != tab.ID {
		t.Fatalf("expected active tab %s, got %s", tab.ID, s.ActiveTerminalTabID)
	}
	if s.ActiveTabKind != KindTerminal || s.ActiveTabID != tab.ID {
		t.Fatalf("expected unified active tab to be the new terminal tab")
	}

	found := false
	for _, ref := range s.UnifiedTabOrder {
		if ref.Kind == KindTerminal && ref.ID == tab.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unified tab order to contain the new tab")
	}
}

func TestCreateTerminalTabDoesNotMutateInput(t *testing.T) {
	s0 := NewSession()
	s1, _ := CreateTerminalTab(s0, CreateTerminalTabConfig{Cwd: "/a"})

	if len(s0.TerminalTabs) != 0 {
		t.Fatalf("expected original session to be unchanged, got %d terminal tabs", len(s0.TerminalTabs))
	}
	if len(s1.TerminalTabs) != 1 {
		t.Fatalf("expected new session to have 1 terminal tab")
	}
}

func TestCloseTerminalTabNotFoundReturnsFalse(t *testing.T) {
	s := NewSession()
	_, ok := CloseTerminalTab(s, "nonexistent")
	if ok {
		t.Fatalf("expected ok=false for unknown tab id")
	}
}

func TestCloseTerminalTabElectsRightNeighbour(t *testing.T) {
	s := NewSession()
	s, a := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})
	s, b := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/b"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/c"})

	// activate the middle tab, then close it; right neighbour (c) must win.
	s.ActiveTerminalTabID = b.ID
	s.ActiveTabKind = KindTerminal
	s.ActiveTabID = b.ID

	s, ok := CloseTerminalTab(s, b.ID)
	if !ok {
		t.Fatalf("expected close to succeed")
	}
	if s.ActiveTerminalTabID == a.ID {
		t.Fatalf("expected right neighbour to be elected, not left")
	}
	if s.ActiveTerminalTabID == "" {
		t.Fatalf("expected some terminal tab to remain active")
	}
}

func TestCloseTerminalTabFallsBackToDefaultAITab(t *testing.T) {
	s := NewSession()
	s, only := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})

	s, ok := CloseTerminalTab(s, only.ID)
	if !ok {
		t.Fatalf("expected close to succeed")
	}
	if s.ActiveTerminalTabID != "" {
		t.Fatalf("expected no active terminal tab")
	}
	if s.ActiveTabKind != KindAI || s.ActiveTabID != s.DefaultAITabID {
		t.Fatalf("expected fallback to the default AI tab")
	}
}

func TestCloseTerminalTabArchivesSnapshot(t *testing.T) {
	s := NewSession()
	s, tab := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/work", Name: "build"})
	s, _ = CloseTerminalTab(s, tab.ID)

	if len(s.UnifiedClosedTabHistory) != 1 {
		t.Fatalf("expected 1 closed-tab snapshot, got %d", len(s.UnifiedClosedTabHistory))
	}
	snap := s.UnifiedClosedTabHistory[0]
	if snap.Cwd != "/work" || snap.Name != "build" || snap.Kind != KindTerminal {
		t.Fatalf("snapshot did not preserve cwd/name/kind: %+v", snap)
	}
}

func TestReopenUnifiedClosedTabOnEmptyHistoryReturnsFalse(t *testing.T) {
	s := NewSession()
	_, _, _, ok := ReopenUnifiedClosedTab(s)
	if ok {
		t.Fatalf("expected ok=false on empty history")
	}
}

func TestReopenUnifiedClosedTabMintsNewID(t *testing.T) {
	s := NewSession()
	s, tab := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/x", Name: "x"})
	s, _ = CloseTerminalTab(s, tab.ID)

	s, reopenedID, kind, ok := ReopenUnifiedClosedTab(s)
	if !ok {
		t.Fatalf("expected reopen to succeed")
	}
	if kind != KindTerminal {
		t.Fatalf("expected reopened kind to be terminal")
	}
	if reopenedID == tab.ID {
		t.Fatalf("expected a freshly minted id distinct from the closed tab's original id")
	}
	if len(s.TerminalTabs) != 1 || s.TerminalTabs[0].Cwd != "/x" || s.TerminalTabs[0].Name != "x" {
		t.Fatalf("expected reconstructed tab to preserve cwd/name")
	}
	if s.TerminalTabs[0].ProcessRunning {
		t.Fatalf("expected reopened tab to have process_running reset to false")
	}
}

func TestReopenIsLIFO(t *testing.T) {
	s := NewSession()
	s, first := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/first"})
	s, second := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/second"})
	s, _ = CloseTerminalTab(s, first.ID)
	s, _ = CloseTerminalTab(s, second.ID)

	s, _, _, ok := ReopenUnifiedClosedTab(s)
	if !ok {
		t.Fatalf("expected reopen to succeed")
	}
	if len(s.TerminalTabs) == 0 || s.TerminalTabs[len(s.TerminalTabs)-1].Cwd != "/second" {
		t.Fatalf("expected the most recently closed tab to reopen first")
	}
}

func TestNavigateNextWrapsAround(t *testing.T) {
	s := NewSession()
	s, a := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/b"})

	// currently active is /b (last created); two next-hops should return to /a.
	s = NavigateToNextUnifiedTab(s)
	s = NavigateToNextUnifiedTab(s)
	if s.ActiveTabID != a.ID {
		t.Fatalf("expected navigation to wrap back to the AI tab or first tab consistently")
	}
}

func TestNavigateByIndexOutOfRange(t *testing.T) {
	s := NewSession()
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})

	_, ok := NavigateToUnifiedTabByIndex(s, 99)
	if ok {
		t.Fatalf("expected out-of-range index to return ok=false")
	}
}

func TestUnifiedTabOrderPermutationInvariant(t *testing.T) {
	s := NewSession()
	s, a := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/b"})
	s, _ = CreateAITab(s, "second-agent")
	s, _ = CloseTerminalTab(s, a.ID)

	live := map[string]bool{}
	for _, t := range s.TerminalTabs {
		live[t.ID] = true
	}
	for _, t := range s.AITabs {
		live[t.ID] = true
	}

	if len(s.UnifiedTabOrder) != len(live) {
		t.Fatalf("expected exactly one unified entry per live tab, got %d entries for %d live tabs", len(s.UnifiedTabOrder), len(live))
	}
	for _, ref := range s.UnifiedTabOrder {
		if !live[ref.ID] {
			t.Fatalf("unified tab order references a dead id: %s", ref.ID)
		}
	}
}

func TestCloseOtherTerminalTabsKeepsOnlyTheGivenTab(t *testing.T) {
	s := NewSession()
	s, a := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/b"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/c"})

	s = CloseOtherTerminalTabs(s, a.ID)

	if len(s.TerminalTabs) != 1 || s.TerminalTabs[0].ID != a.ID {
		t.Fatalf("expected only the kept tab to remain")
	}
	if len(s.UnifiedClosedTabHistory) != 2 {
		t.Fatalf("expected 2 closed-tab snapshots, got %d", len(s.UnifiedClosedTabHistory))
	}
}

func TestCloseTerminalTabsToRight(t *testing.T) {
	s := NewSession()
	s, a := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/b"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/c"})

	s = CloseTerminalTabsToRight(s, a.ID)

	if len(s.TerminalTabs) != 1 || s.TerminalTabs[0].ID != a.ID {
		t.Fatalf("expected only tabs up to and including the pivot to remain")
	}
}

func TestRenameTerminalTabUnknownID(t *testing.T) {
	s := NewSession()
	_, ok := RenameTerminalTab(s, "nope", "new-name")
	if ok {
		t.Fatalf("expected ok=false for unknown tab id")
	}
}

func TestMarkTerminalTabExitedDoesNotRemoveTab(t *testing.T) {
	s := NewSession()
	s, tab := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})

	s, ok := MarkTerminalTabExited(s, tab.ID, 130)
	if !ok {
		t.Fatalf("expected mark-exited to succeed")
	}
	if len(s.TerminalTabs) != 1 {
		t.Fatalf("expected UI state to keep the tab until explicitly closed")
	}
	if s.TerminalTabs[0].ProcessRunning {
		t.Fatalf("expected process_running to be false after exit")
	}
	if s.TerminalTabs[0].ExitCode == nil || *s.TerminalTabs[0].ExitCode != 130 {
		t.Fatalf("expected exit_code to be recorded")
	}
}

func TestDefaultAITabCannotBeClosed(t *testing.T) {
	s := NewSession()
	_, ok := CloseAITab(s, s.DefaultAITabID)
	if ok {
		t.Fatalf("expected the default AI tab to be unclosable")
	}
}

func TestCreateAndCloseAITab(t *testing.T) {
	s := NewSession()
	s, tab := CreateAITab(s, "helper")

	s, ok := CloseAITab(s, tab.ID)
	if !ok {
		t.Fatalf("expected close to succeed for a non-default AI tab")
	}
	for _, t2 := range s.AITabs {
		if t2.ID == tab.ID {
			t.Fatalf("expected AI tab to be removed")
		}
	}
}

func TestActiveTerminalTabIDAlwaysValidOrEmpty(t *testing.T) {
	s := NewSession()
	s, a := CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/a"})
	s, _ = CreateTerminalTab(s, CreateTerminalTabConfig{Cwd: "/b"})
	s, _ = CloseTerminalTab(s, a.ID)

	if s.ActiveTerminalTabID != "" {
		found := false
		for _, t := range s.TerminalTabs {
			if t.ID == s.ActiveTerminalTabID {
				found = true
			}
		}
		if !found {
			t.Fatalf("active_terminal_tab_id references a tab that doesn't exist")
		}
	}
}
