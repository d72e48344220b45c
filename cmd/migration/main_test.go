package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSteps(t *testing.T) {
	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("expected default 1 step, got %d (%v)", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("expected 3 steps, got %d (%v)", got, err)
	}
	for _, bad := range []string{"0", "-1", "x"} {
		if _, err := parseSteps([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	if _, err := parseVersion("-4"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if got, err := parseTarget("1"); err != nil || got != 1 {
		t.Fatalf("unexpected target %d (%v)", got, err)
	}
	if _, err := parseTarget("v1"); err == nil {
		t.Fatalf("expected error for non-numeric target")
	}
}

func TestResolveMigrationsDir_PrefersEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIGRATIONS_DIR", dir)

	got, err := resolveMigrationsDir()
	if err != nil {
		t.Fatalf("resolve migrations dir: %v", err)
	}
	want, _ := filepath.Abs(dir)
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveMigrationsDir_FindsRepoMigrations(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(filepath.Join(wd, "..", "..")); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := resolveMigrationsDir(); err != nil {
		t.Fatalf("expected ./db/migrations to resolve from repo root: %v", err)
	}
}
