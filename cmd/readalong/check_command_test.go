package main

import (
	"strings"
	"testing"

	"readalong/internal/preflight"
)

func TestCheckFreshInstall(t *testing.T) {
	env := setupCLITestEnv(t)

	results := decodeOutput[[]preflight.Result](t, env.run(t, "--json", "check"))
	if preflight.Failed(results) {
		t.Fatalf("fresh install failed checks: %+v", results)
	}
	out := env.run(t, "check")
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "[OK]")
}

func TestMigrateLegacyNothingToDo(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedTrack(t)

	requireContains(t, env.run(t, "migrate-legacy"), "No legacy timings found")
	if out := env.run(t, "--json", "migrate-legacy"); strings.TrimSpace(out) != "[]" {
		t.Fatalf("json output = %q", out)
	}
	if _, _, err := runCLI(t, env.configPath, "migrate-legacy", "book"); err == nil {
		t.Fatal("expected argument error")
	}
}
