package usecase

import (
	"context"
	"sync"
)

// GroupLocks serialises sync attempts and local writes per group. The timer
// path uses TryLock and skips busy groups; resolution and local writes wait
// with Lock.
type GroupLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewGroupLocks creates an empty lock arena.
func NewGroupLocks() *GroupLocks {
	return &GroupLocks{locks: make(map[string]chan struct{})}
}

func (l *GroupLocks) sem(groupID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.locks[groupID]
	if !ok {
		s = make(chan struct{}, 1)
		l.locks[groupID] = s
	}
	return s
}

// TryLock acquires the group's lock without waiting.
func (l *GroupLocks) TryLock(groupID string) bool {
	select {
	case l.sem(groupID) <- struct{}{}:
		return true
	default:
		return false
	}
}

// Lock waits for the group's lock or until ctx is done.
func (l *GroupLocks) Lock(ctx context.Context, groupID string) error {
	select {
	case l.sem(groupID) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock releases the group's lock. It must be held.
func (l *GroupLocks) Unlock(groupID string) {
	select {
	case <-l.sem(groupID):
	default:
		panic("usecase: unlock of unlocked group " + groupID)
	}
}
