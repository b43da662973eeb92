package player

import "sync"

// userLocks serializes playback operations per user. next, previous, shuffle
// and queue renumbering are read-then-multi-write sequences that are not safe
// under interleaving, so every operation for a user runs under that user's
// mutex. Operations for different users never contend.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for a user and returns its release func. Entries
// are never evicted; the map is bounded by the number of distinct users.
func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
