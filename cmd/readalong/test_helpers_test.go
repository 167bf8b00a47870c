package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readalong/internal/config"
	"readalong/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("READALONG_API_TOKEN", "")

	configPath := filepath.Join(base, "readalong.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, e.configPath, args...)
	if err != nil {
		t.Fatalf("readalong %s: %v\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), err, out, stderr)
	}
	return out
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	return v
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

const sampleText = "Hello world. Goodbye world."

const sampleTimings = `[
  {"word": "Hello", "start": 0.0, "end": 0.5},
  {"word": "world.", "start": 0.5, "end": 1.0},
  {"word": "Goodbye", "start_time": 1.2, "end_time": 1.8},
  {"word": "world.", "start_time": 1.8, "end_time": 2.4}
]`

// seedTrack creates track "book" with voice "alloy" timings.
func (e *cliTestEnv) seedTrack(t *testing.T) {
	t.Helper()
	e.run(t, "track", "add", "book", "--title", "Book", "--text", sampleText)
	path := filepath.Join(t.TempDir(), "timings.json")
	if err := os.WriteFile(path, []byte(sampleTimings), 0o644); err != nil {
		t.Fatalf("write timings: %v", err)
	}
	e.run(t, "ingest", "book", "alloy", path)
}
