package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
)

// Locker is a process-local policies.ResourceLocker for single-instance runs.
type Locker struct {
	mu    sync.Mutex
	now   func() time.Time
	held  map[string]lease
	token uint64
}

type lease struct {
	token   uint64
	expires time.Time
}

func NewLocker() *Locker {
	return &Locker{now: time.Now, held: make(map[string]lease)}
}

func (l *Locker) Acquire(_ context.Context, key string, ttl time.Duration) (policies.Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if current, ok := l.held[key]; ok && now.Before(current.expires) {
		return nil, policies.ErrResourceBusy
	}
	l.token++
	token := l.token
	l.held[key] = lease{token: token, expires: now.Add(ttl)}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// An expired lease may have been taken over; only the owner releases.
		if current, ok := l.held[key]; ok && current.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}

var _ policies.ResourceLocker = (*Locker)(nil)
