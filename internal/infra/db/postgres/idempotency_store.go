package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/middleware"
)

type IdempotencyStore struct {
	db  Querier
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(db Querier, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{db: db, ttl: ttl, now: time.Now}
}

func (s *IdempotencyStore) cutoff() time.Time {
	return s.now().Add(-s.ttl).UTC()
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	rec := middleware.IdempotencyRecord{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, in_flight, occurred_at FROM idempotency WHERE key = $1 AND created_at >= $2`,
		key, s.cutoff(),
	).Scan(&rec.Payload, &rec.InFlight, &rec.OccurredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

// Reserve inserts an in-flight marker, replacing only an expired record.
// No returned row means a live record already holds the key.
const reserveIdempotency = `INSERT INTO idempotency (key, payload, in_flight, occurred_at, created_at)
VALUES ($1, NULL, TRUE, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload = NULL, in_flight = TRUE, occurred_at = EXCLUDED.occurred_at, created_at = EXCLUDED.created_at
WHERE idempotency.created_at < $4
RETURNING key`

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, at time.Time) (bool, error) {
	var got string
	err := s.db.QueryRowContext(ctx, reserveIdempotency, key, at.UTC(), s.now().UTC(), s.cutoff()).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO idempotency (key, payload, in_flight, occurred_at, created_at) VALUES ($1, $2, FALSE, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, in_flight = FALSE, occurred_at = EXCLUDED.occurred_at`,
		rec.Key, rec.Payload, rec.OccurredAt.UTC(), s.now().UTC())
	return err
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM idempotency WHERE key = $1 AND in_flight`, key)
	return err
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
