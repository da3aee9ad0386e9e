package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
)

// lockScope collects every lock taken while one command runs so they are
// all released after the chain below, and thus the commit, has finished.
type lockScope struct {
	locker    policies.ResourceLocker
	ttl, wait time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	held     map[string]struct{}
	releases []func()
}

type lockScopeKey struct{}

func (s *lockScope) acquire(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.held[key]; ok {
		return nil
	}
	release, err := policies.AcquireWithin(ctx, s.locker, key, s.ttl, s.wait)
	if err != nil {
		return err
	}
	s.held[key] = struct{}{}
	s.releases = append(s.releases, func() {
		// The lock may already have expired; the store constraint still holds.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("resource lock release failed", "key", key, "error", err)
		}
	})
	return nil
}

func (s *lockScope) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
	s.held = map[string]struct{}{}
}

// HoldLock takes key for the rest of the current command. Handlers use it
// for resources only known after loading state. Without ResourceLock in the
// chain it is a no-op.
func HoldLock(ctx context.Context, key string) error {
	scope, ok := ctx.Value(lockScopeKey{}).(*lockScope)
	if !ok || key == "" {
		return nil
	}
	return scope.acquire(ctx, key)
}

// LockScoped reports whether HoldLock would take a lock for ctx.
func LockScoped(ctx context.Context) bool {
	_, ok := ctx.Value(lockScopeKey{}).(*lockScope)
	return ok
}

// ResourceLock holds the command's resource lock around the rest of the
// chain. Placed outside Transaction, the lock is released after commit.
func ResourceLock(locker policies.ResourceLocker, ttl, wait time.Duration, logger *slog.Logger) CommandMiddleware {
	if locker == nil {
		panic("middleware: resource locker required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			scope := &lockScope{locker: locker, ttl: ttl, wait: wait, logger: logger, held: map[string]struct{}{}}
			defer scope.releaseAll()
			if locked, ok := cmd.(commands.Locked); ok && locked.LockKey() != "" {
				if err := scope.acquire(ctx, locked.LockKey()); err != nil {
					return nil, err
				}
			}
			return nextFn(context.WithValue(ctx, lockScopeKey{}, scope), cmd)
		})
	}
}
