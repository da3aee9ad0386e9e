package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
)

const keyPrefix = "trevo:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-taken by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient connects and pings.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Locker is a policies.ResourceLocker shared by every replica.
type Locker struct {
	client redis.UniversalClient
	token  func() string
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client, token: uuid.NewString}
}

func lockKey(key string) string {
	return keyPrefix + key
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (policies.Release, error) {
	if ttl <= 0 {
		return nil, errors.New("redis: lock ttl must be positive")
	}
	k := lockKey(key)
	token := l.token()
	ok, err := l.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, policies.ErrResourceBusy
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{k}, token).Err()
	}, nil
}

// Ping backs the readiness check.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

var _ policies.ResourceLocker = (*Locker)(nil)
