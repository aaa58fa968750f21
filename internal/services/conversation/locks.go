package conversation

import "sync"

// lockTable hands out one mutex per session. Entries are reference counted
// and removed when the last holder unlocks.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sessionLock)}
}

// lock blocks until the session's mutex is held and returns the unlock func.
func (t *lockTable) lock(sessionID string) func() {
	t.mu.Lock()
	l, ok := t.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		t.locks[sessionID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, sessionID)
		}
		t.mu.Unlock()
	}
}

// size returns the number of sessions with a live lock entry.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
