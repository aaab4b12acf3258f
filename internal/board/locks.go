package board

import "sync"

// Locks serializes column renumbering per project. Different projects
// never wait for each other.
type Locks struct {
	mu    sync.Mutex
	locks map[int64]*projectLock
}

type projectLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[int64]*projectLock)}
}

// Lock blocks until the caller holds projectID's lock. The returned
// function releases it.
func (l *Locks) Lock(projectID int64) (unlock func()) {
	l.mu.Lock()
	pl, ok := l.locks[projectID]
	if !ok {
		pl = &projectLock{}
		l.locks[projectID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, projectID)
		}
		l.mu.Unlock()
	}
}

// held returns how many callers hold or wait for projectID's lock.
func (l *Locks) held(projectID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pl, ok := l.locks[projectID]; ok {
		return pl.refs
	}
	return 0
}
