package cart

import "sync"

// SessionLocks hands out one mutex per session. Entries live only while a
// caller holds or waits for them, so the map stays as small as the number of
// sessions with requests in flight.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock blocks until session is free and returns the function that frees it.
func (l *SessionLocks) Lock(session string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[session]
	if !ok {
		sl = &sessionLock{}
		l.locks[session] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, session)
		}
		l.mu.Unlock()
	}
}

// Held reports how many sessions currently have a lock entry.
func (l *SessionLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
