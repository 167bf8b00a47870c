// Package keylock provides per-key mutual exclusion within one process.
package keylock

import (
	"context"
	"sync"
)

// Map hands out one lock per key. Entries are dropped once no holder or
// waiter remains.
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// entry is held while its one-slot channel is full.
type entry struct {
	slot chan struct{}
	refs int
}

// New returns an empty lock map.
func New() *Map {
	return &Map{locks: make(map[string]*entry)}
}

// Lock blocks until key is held and returns the matching unlock function.
func (m *Map) Lock(key string) func() {
	unlock, _ := m.LockContext(context.Background(), key)
	return unlock
}

// LockContext is Lock that gives up when ctx ends, returning ctx.Err().
func (m *Map) LockContext(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			m.release(key, e)
		})
	}, nil
}

func (m *Map) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

// Len reports the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
