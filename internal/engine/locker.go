package engine

import (
	"fmt"
	"sync"
)

// Locker hands out mutual exclusion per key. Every mutating engine operation
// runs under its lobby's key; join and create also take the user's key so the
// one-lobby-per-user check-then-act cannot interleave.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty lock registry.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its release func. Entries are
// dropped from the registry once the last holder releases.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func lobbyKey(id uint) string { return fmt.Sprintf("lobby/%d", id) }
func userKey(id uint) string  { return fmt.Sprintf("user/%d", id) }
