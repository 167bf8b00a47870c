package daemonrun

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"readalong/internal/logging"
	"readalong/internal/testsupport"
)

func TestStartServesAndHoldsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := Start(ctx, cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Close()

	resp, err := http.Get("http://" + rt.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, "readalong.pid")); err != nil {
		t.Fatalf("pid file missing: %v", err)
	}

	if _, err := Start(ctx, cfg, logging.NewNop()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start err = %v, want ErrAlreadyRunning", err)
	}

	rt.Close()
	again, err := Start(ctx, cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Start after Close: %v", err)
	}
	again.Close()
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "readalong-1.log")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("ensureCurrentLogPointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "readalong.log"))
	if err != nil || string(data) != "x" {
		t.Fatalf("pointer content = %q, %v", data, err)
	}
}
