package policies

import (
	"context"
	"errors"
	"time"
)

var ErrResourceBusy = errors.New("policies: resource is locked by another request")

// Release frees a lock taken by ResourceLocker.Acquire.
type Release func(ctx context.Context) error

// ResourceLocker serializes the conflict check and insert for one resource.
// Acquire must not block: it returns ErrResourceBusy when the lock is held.
type ResourceLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// AcquireWithin retries Acquire until wait elapses or ctx is done.
func AcquireWithin(ctx context.Context, locker ResourceLocker, key string, ttl, wait time.Duration) (Release, error) {
	deadline := time.Now().Add(wait)
	delay := 10 * time.Millisecond
	for {
		release, err := locker.Acquire(ctx, key, ttl)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, ErrResourceBusy) || time.Now().Add(delay).After(deadline) {
			return nil, err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if delay < 200*time.Millisecond {
			delay *= 2
		}
	}
}
