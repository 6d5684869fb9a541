package lock

import (
	"context"
	"errors"
)

var ErrNotObtained = errors.New("lock not obtained")

// Locker hands out exclusive locks on string keys.
type Locker interface {
	// Obtain blocks until the lock is held or ctx is done. It returns ErrNotObtained on timeout.
	Obtain(ctx context.Context, key string) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}
