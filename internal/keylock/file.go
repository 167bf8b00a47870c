package keylock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// FileLocker serializes work on a key across goroutines and processes. Each
// key maps to <dir>/<key>.lock guarded by flock.
type FileLocker struct {
	dir   string
	local *Map
}

// NewFileLocker returns a locker that keeps lock files in dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir, local: New()}
}

// Lock waits for key or until ctx ends. Keys must be valid file names.
func (l *FileLocker) Lock(ctx context.Context, key string) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	unlockLocal, err := l.local.LockContext(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		unlockLocal()
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	path := filepath.Join(l.dir, key+".lock")
	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		unlockLocal()
		return nil, fmt.Errorf("acquire %s: %w", path, err)
	}
	if !ok {
		unlockLocal()
		return nil, fmt.Errorf("acquire %s: lock not obtained", path)
	}
	return func() {
		_ = fl.Unlock()
		unlockLocal()
	}, nil
}
