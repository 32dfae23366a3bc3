package supervisor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectShellTypeByBasename(t *testing.T) {
	cases := map[string]shellType{
		"/bin/zsh":       shellTypeZsh,
		"/usr/bin/bash":  shellTypeBash,
		"/usr/bin/fish":  shellTypeFish,
		"/bin/sh":        shellTypePosix,
		"/bin/dash":      shellTypePosix,
	}
	for path, want := range cases {
		if got := detectShellType(path); got != want {
			t.Fatalf("detectShellType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestEnsureShellInitFilesNoOpWhenPathPrependEmpty(t *testing.T) {
	dir := t.TempDir()
	w := DefaultShellInitWriter{BaseDir: filepath.Join(dir, "init")}

	if err := w.EnsureShellInitFiles(""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := os.Stat(w.BaseDir); !os.IsNotExist(err) {
		t.Fatalf("expected no init directory to be created for an empty prepend")
	}
}

func TestEnsureShellInitFilesWritesAllShellVariants(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "init")
	w := DefaultShellInitWriter{BaseDir: base}

	if err := w.EnsureShellInitFiles("/opt/tool/bin"); err != nil {
		t.Fatalf("EnsureShellInitFiles: %v", err)
	}

	paths := newShellInitPaths(base)
	for _, p := range []string{paths.BashRC(), paths.ZshRC(), paths.FishConfig(), paths.PosixRC()} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected init file %s to exist: %v", p, err)
		}
	}
}

func TestBashInitScriptReferencesPathPrependKey(t *testing.T) {
	script := bashInitScript()
	if !contains(script, pathPrependEnvKey) {
		t.Fatalf("expected bash init script to reference %s", pathPrependEnvKey)
	}
}

func TestZshInitScriptReferencesZdotdirKey(t *testing.T) {
	script := zshInitScript()
	if !contains(script, originalZdotdirEnvKey) {
		t.Fatalf("expected zsh init script to reference %s", originalZdotdirEnvKey)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
