package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates survey access across replicas. The engine
// requires at most one writer at a time per survey; pkg/session uses this
// port to extend that guarantee beyond a single process.
type DistributedLocker interface {
	// Lock acquires a lock for the key (an owner reference). It blocks
	// until acquired or the context is canceled. The returned UnlockFunc
	// MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
