package storage

import (
	"fmt"

	"github.com/gofrs/flock"
)

// RunLock is an advisory lock file that keeps two runs from working the same
// processed log at once.
type RunLock struct {
	lock *flock.Flock
}

// NewRunLock creates a lock at path. Nothing is acquired until TryLock.
func NewRunLock(path string) *RunLock {
	return &RunLock{lock: flock.New(path)}
}

// TryLock acquires the lock without blocking. It returns false when another
// process holds it.
func (l *RunLock) TryLock() (bool, error) {
	ok, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire run lock %s: %w", l.lock.Path(), err)
	}
	return ok, nil
}

// Unlock releases the lock
func (l *RunLock) Unlock() error {
	return l.lock.Unlock()
}

// Path returns the lock file location
func (l *RunLock) Path() string {
	return l.lock.Path()
}
