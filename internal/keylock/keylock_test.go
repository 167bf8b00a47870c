package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	m := New()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		overlap bool
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("track/voice")
			defer unlock()
			mu.Lock()
			inside++
			if inside > 1 {
				overlap = true
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if overlap {
		t.Fatal("expected exclusive access per key")
	}
	if m.Len() != 0 {
		t.Fatalf("expected entries to be released, have %d", m.Len())
	}
}

func TestLockDistinctKeysIndependent(t *testing.T) {
	m := New()
	unlockA := m.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
	unlockA()
	if m.Len() != 0 {
		t.Fatalf("expected empty map, have %d", m.Len())
	}
}

func TestLockContextGivesUpWhileHeld(t *testing.T) {
	m := New()
	unlock := m.Lock("k")

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if _, err := m.LockContext(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected only the holder's entry, have %d", m.Len())
	}

	unlock()
	again, err := m.LockContext(context.Background(), "k")
	if err != nil {
		t.Fatalf("LockContext after release: %v", err)
	}
	again()
	if m.Len() != 0 {
		t.Fatalf("expected empty map, have %d", m.Len())
	}
}
