package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "one\ntwo\nthree\n"
	if err := os.WriteFile(filepath.Join(env.cfg.Paths.LogDir, "readalong.log"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out := env.run(t, "logs", "-n", "2")
	if strings.TrimSpace(out) != "two\nthree" {
		t.Fatalf("logs output = %q", out)
	}
}
