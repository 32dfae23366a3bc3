package supervisor

import "testing"

func TestParseOSC7Sequence(t *testing.T) {
	data := []byte("\x1b]7;file://host/home/user/project\x07")
	dir, ok := parseOSC7Sequence(data)
	if !ok || dir != "/home/user/project" {
		t.Fatalf("expected /home/user/project, got %q ok=%v", dir, ok)
	}
}

func TestParseVSCodeCwdSequence(t *testing.T) {
	data := []byte("\x1b]633;P;Cwd=/srv/app\x07")
	dir, ok := parseVSCodeCwdSequence(data)
	if !ok || dir != "/srv/app" {
		t.Fatalf("expected /srv/app, got %q ok=%v", dir, ok)
	}
}

func TestParseITerm2CurrentDirSequence(t *testing.T) {
	data := []byte("\x1b]1337;CurrentDir=/opt/data\x07")
	dir, ok := parseITerm2CurrentDirSequence(data)
	if !ok || dir != "/opt/data" {
		t.Fatalf("expected /opt/data, got %q ok=%v", dir, ok)
	}
}

func TestParseOSCTitleSequence(t *testing.T) {
	data := []byte("\x1b]2;my-title\x07")
	title, ok := parseOSCTitleSequence(data)
	if !ok || title != "my-title" {
		t.Fatalf("expected my-title, got %q ok=%v", title, ok)
	}
}

func TestShouldCheckDirectoryChangeSkipsPlainData(t *testing.T) {
	if shouldCheckDirectoryChange([]byte("just some text")) {
		t.Fatalf("expected plain text to skip the OSC check")
	}
}

func TestLastPathComponent(t *testing.T) {
	cases := map[string]string{
		"/home/user/project": "project",
		"/home/user/":        "user",
		"/":                  "",
		"relative":           "relative",
	}
	for in, want := range cases {
		if got := lastPathComponent(in); got != want {
			t.Fatalf("lastPathComponent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckWorkingDirectoryChangeFiresNameChanged(t *testing.T) {
	s := &session{kind: KindTerminalTab}
	var gotName string
	s.onNameChanged = func(name string) { gotName = name }

	s.checkWorkingDirectoryChange([]byte("\x1b]7;file://host/home/user/myproj\x07"))

	if gotName != "myproj" {
		t.Fatalf("expected name-changed to fire with directory-derived name, got %q", gotName)
	}
	if s.cwd != "/home/user/myproj" {
		t.Fatalf("expected cwd tracked, got %q", s.cwd)
	}
}

func TestCheckWorkingDirectoryChangeDoesNotFireNameChangedForAgentProcess(t *testing.T) {
	s := &session{kind: KindAgentProcess, name: "agent"}
	fired := false
	s.onNameChanged = func(string) { fired = true }

	s.checkWorkingDirectoryChange([]byte("\x1b]7;file://host/tmp\x07"))

	if fired {
		t.Fatalf("expected no name-changed for a non-terminal-tab session")
	}
}
