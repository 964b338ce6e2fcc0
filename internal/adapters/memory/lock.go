package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/crmsync/internal/ports/secondary"
)

const acquirePollInterval = 10 * time.Millisecond

// LockManager is an in-process lease-based lock manager implementing
// secondary.LockManager. A holder that never releases (crashed goroutine,
// leaked handle) loses the lock when its lease expires, so other holders
// are not deadlocked forever.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*namedLock
	now   func() time.Time
}

type namedLock struct {
	held      bool
	token     int64
	expiresAt time.Time
}

// NewLockManager creates a lock manager using the wall clock.
func NewLockManager() *LockManager {
	return NewLockManagerWithClock(time.Now)
}

// NewLockManagerWithClock creates a lock manager with an injected clock.
func NewLockManagerWithClock(now func() time.Time) *LockManager {
	return &LockManager{
		locks: make(map[string]*namedLock),
		now:   now,
	}
}

// Lock returns a handle to the named lock. Nothing is acquired yet.
func (m *LockManager) Lock(name string, lease time.Duration) secondary.Lock {
	return &lockHandle{mgr: m, name: name, lease: lease}
}

// tryAcquire attempts to take the named lock, returning a fencing token on
// success. An expired lease counts as released.
func (m *LockManager) tryAcquire(name string, lease time.Duration) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[name]
	if !ok {
		l = &namedLock{}
		m.locks[name] = l
	}
	if l.held && m.now().Before(l.expiresAt) {
		return 0, false
	}
	l.held = true
	l.token++
	l.expiresAt = m.now().Add(lease)
	return l.token, true
}

// release frees the named lock, but only for the holder identified by
// token. A holder whose lease already expired and was re-acquired by
// someone else must not release the new holder's lock.
func (m *LockManager) release(name string, token int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.locks[name]; ok && l.held && l.token == token {
		l.held = false
	}
}

type lockHandle struct {
	mgr   *LockManager
	name  string
	lease time.Duration
}

// Block acquires the lock, runs fn, and releases on every exit path.
func (h *lockHandle) Block(ctx context.Context, acquireTimeout time.Duration, fn func() error) error {
	deadline := h.mgr.now().Add(acquireTimeout)

	var token int64
	for {
		var ok bool
		if token, ok = h.mgr.tryAcquire(h.name, h.lease); ok {
			break
		}
		if !h.mgr.now().Before(deadline) {
			return fmt.Errorf("lock %s: %w", h.name, secondary.ErrLockNotAcquired)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock %s: %w", h.name, ctx.Err())
		case <-time.After(acquirePollInterval):
		}
	}

	defer h.mgr.release(h.name, token)
	return fn()
}
