package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired through Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work on a key, typically across processes sharing a ResultStore.
type Locker interface {
	// Lock blocks until the lock on key is held or ctx is done.
	// ttl bounds how long a crashed holder can keep the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
