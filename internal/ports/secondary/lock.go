package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotAcquired is returned by Lock.Block when the named lock could not
// be acquired within the acquire timeout. Callers surface it unchanged; the
// sync layer never retries lock acquisition internally.
var ErrLockNotAcquired = errors.New("lock not acquired within timeout")

// Lock is a named, leased mutual-exclusion token obtained from a LockManager.
type Lock interface {
	// Block runs fn once the lock is acquired, releasing it on every exit
	// path including panics and fn errors. If the lock cannot be acquired
	// within acquireTimeout, Block returns an error wrapping
	// ErrLockNotAcquired without running fn.
	Block(ctx context.Context, acquireTimeout time.Duration, fn func() error) error
}

// LockManager defines the secondary port for distributed locking.
//
// At most one holder per name exists across all processes; a holder that
// crashes loses the lock when its lease expires.
type LockManager interface {
	// Lock returns a handle to the named lock with the given lease duration.
	// No acquisition happens until Block is called.
	Lock(name string, lease time.Duration) Lock
}
