package workpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBoundsConcurrency(t *testing.T) {
	pool := New(2)
	var (
		active  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Run(context.Background(), func() error {
				n := active.Add(1)
				for {
					prev := maxSeen.Load()
					if n <= prev || maxSeen.CompareAndSwap(prev, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				active.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	if got := maxSeen.Load(); got > 2 {
		t.Fatalf("expected at most 2 concurrent runs, saw %d", got)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	pool := New(1)
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = pool.Run(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := pool.Run(ctx, func() error {
		called = true
		return nil
	})
	close(release)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatal("fn must not run after cancellation")
	}
}

func TestDoReturnsValue(t *testing.T) {
	got, err := Do(context.Background(), New(0), func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}

	boom := errors.New("boom")
	if _, err := Do(context.Background(), nil, func() (int, error) { return 1, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestNewDefaultsToGOMAXPROCS(t *testing.T) {
	if New(-3).Size() < 1 {
		t.Fatal("expected positive default size")
	}
}
