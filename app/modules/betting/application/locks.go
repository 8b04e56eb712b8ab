package bettingservice

import (
	"sync"

	"github.com/google/uuid"
)

// raceLocks serializes writers per race inside one process. Entries are
// reference counted and dropped once no goroutine holds or waits on them.
type raceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*raceLock
}

type raceLock struct {
	mu   sync.Mutex
	refs int
}

func newRaceLocks() *raceLocks {
	return &raceLocks{locks: make(map[uuid.UUID]*raceLock)}
}

// Lock blocks until the race is free and returns the matching unlock.
func (l *raceLocks) Lock(raceID uuid.UUID) func() {
	l.mu.Lock()
	lk, ok := l.locks[raceID]
	if !ok {
		lk = &raceLock{}
		l.locks[raceID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()

	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, raceID)
		}
		l.mu.Unlock()
	}
}

func (l *raceLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
