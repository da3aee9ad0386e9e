package postgres

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	infraoutbox "github.com/hironxdev/trevo.lk-sub002/internal/infra/outbox"
)

type OutboxStore struct {
	q        Querier
	readOnly bool
}

// NewOutboxStore binds the relay side to q; units bind their own store to
// the open transaction for Add.
func NewOutboxStore(q Querier) *OutboxStore {
	return &OutboxStore{q: q}
}

const insertOutbox = `INSERT INTO outbox (id, name, payload, occurred_at, aggregate, headers, state, attempts, next_attempt_at)
VALUES ($1, $2, $3, $4, $5, $6, 'NEW', 0, $7)`

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if s.readOnly {
		return ErrReadOnlyUnit
	}
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, insertOutbox,
		record.ID, record.Name, record.Payload, record.OccurredAt, record.Aggregate, headers, time.Now().UTC())
	return err
}

// SKIP LOCKED lets several relays claim disjoint batches concurrently.
const claimOutbox = `UPDATE outbox SET state = 'CLAIMED', claimed_by = $1, claimed_at = $2
WHERE id IN (
	SELECT id FROM outbox
	WHERE (state IN ('NEW', 'FAILED') AND next_attempt_at <= $2)
	   OR (state = 'CLAIMED' AND claimed_at <= $3)
	ORDER BY next_attempt_at, occurred_at
	LIMIT $4
	FOR UPDATE SKIP LOCKED
)
RETURNING id, name, payload, occurred_at, aggregate, headers, attempts`

func (s *OutboxStore) Claim(ctx context.Context, workerID string, limit int, now time.Time) ([]infraoutbox.Message, error) {
	now = now.UTC()
	rows, err := s.q.QueryContext(ctx, claimOutbox, workerID, now, now.Add(-infraoutbox.ClaimLease), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []infraoutbox.Message
	for rows.Next() {
		var (
			msg     infraoutbox.Message
			headers []byte
		)
		rec := &msg.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Payload, &rec.OccurredAt, &rec.Aggregate, &headers, &msg.Attempts); err != nil {
			return nil, err
		}
		rec.OccurredAt = rec.OccurredAt.UTC()
		rec.Headers = map[string]string{}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &rec.Headers); err != nil {
				return nil, err
			}
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// RETURNING does not keep the subquery order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.OccurredAt.Before(out[j].Record.OccurredAt)
	})
	return out, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := s.q.ExecContext(ctx, `UPDATE outbox SET state = 'SENT', sent_at = $2 WHERE id = $1`, id, at.UTC())
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, cause string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE outbox SET state = 'FAILED', attempts = attempts + 1, next_attempt_at = $2, last_error = $3 WHERE id = $1`,
		id, next.UTC(), cause)
	return err
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
