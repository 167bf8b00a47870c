package keylock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func TestFileLockerExcludesOtherHolders(t *testing.T) {
	dir := t.TempDir()
	locker := NewFileLocker(dir)

	unlock, err := locker.Lock(context.Background(), "track@voice")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	// A separate flock handle stands in for another process.
	other := flock.New(dir + "/track@voice.lock")
	if ok, err := other.TryLock(); err != nil || ok {
		t.Fatalf("expected lock held, TryLock = %v, %v", ok, err)
	}
	unlock()
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("expected lock free after unlock, TryLock = %v, %v", ok, err)
	}
	_ = other.Unlock()
}

func TestFileLockerHonoursContext(t *testing.T) {
	dir := t.TempDir()
	holder := flock.New(dir + "/busy.lock")
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := NewFileLocker(dir).Lock(ctx, "busy"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFileLockerInProcessWaiterHonoursContext(t *testing.T) {
	locker := NewFileLocker(t.TempDir())
	unlock, err := locker.Lock(context.Background(), "book@alloy.playlist")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := locker.Lock(ctx, "book@alloy.playlist")
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter ignored its context")
	}
}
