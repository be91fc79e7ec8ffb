package payment

import "sync"

// refLocks serializes update work per order reference inside this process, so
// a webhook and a poll racing on the same reference apply their updates one
// at a time (the store's row lock covers the cross-process case).
type refLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newRefLocks() *refLocks {
	return &refLocks{locks: make(map[string]*refLock)}
}

func (l *refLocks) lock(ref string) {
	l.mu.Lock()
	entry, ok := l.locks[ref]
	if !ok {
		entry = &refLock{}
		l.locks[ref] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *refLocks) unlock(ref string) {
	l.mu.Lock()
	entry := l.locks[ref]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, ref)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
