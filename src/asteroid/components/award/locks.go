package award

import "sync"

// messageLocks serializes engine operations per message ID. Two concurrent
// events racing on count recomputation could both observe threshold-1 and
// both create a mirror; the single-writer section rules that out. Entries
// are reference counted so the map does not grow with message history.
type messageLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newMessageLocks() *messageLocks {
	return &messageLocks{locks: make(map[string]*lockEntry)}
}

func (l *messageLocks) lock(id string) {
	l.mu.Lock()
	e := l.locks[id]
	if e == nil {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *messageLocks) unlock(id string) {
	l.mu.Lock()
	e := l.locks[id]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}
