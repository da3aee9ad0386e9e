package postgres

import (
	"context"
	"database/sql"
)

// Schema is applied by Migrate. The exclusion constraint is the last line
// of defence against double booking: it covers the statuses that block in
// every vertical, while the per-vertical sets are enforced by the handlers
// under the listing lock.
const Schema = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS listings (
	id            TEXT PRIMARY KEY,
	host_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	vertical      TEXT NOT NULL,
	state         TEXT NOT NULL,
	min_nights    INTEGER NOT NULL DEFAULT 0,
	max_nights    INTEGER NOT NULL DEFAULT 0,
	vehicle_rates JSONB,
	stay_rates    JSONB,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	version       BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id          TEXT PRIMARY KEY,
	listing_id  TEXT NOT NULL REFERENCES listings(id),
	guest_id    TEXT NOT NULL,
	vertical    TEXT NOT NULL,
	start_at    TIMESTAMPTZ NOT NULL,
	end_at      TIMESTAMPTZ NOT NULL,
	rental_type TEXT NOT NULL DEFAULT '',
	with_driver BOOLEAN NOT NULL DEFAULT FALSE,
	guests      INTEGER NOT NULL,
	price       JSONB NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	version     BIGINT NOT NULL,
	CHECK (end_at > start_at)
);

CREATE INDEX IF NOT EXISTS bookings_listing_range_idx ON bookings (listing_id, start_at, end_at);

DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
			EXCLUDE USING gist (listing_id WITH =, tstzrange(start_at, end_at, '[)') WITH &&)
			WHERE (status IN ('CONFIRMED', 'ACTIVE'));
	END IF;
END $$;

CREATE TABLE IF NOT EXISTS outbox (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	payload         BYTEA NOT NULL,
	occurred_at     TIMESTAMPTZ NOT NULL,
	aggregate       TEXT NOT NULL,
	headers         JSONB NOT NULL DEFAULT '{}',
	state           TEXT NOT NULL DEFAULT 'NEW',
	attempts        INTEGER NOT NULL DEFAULT 0,
	next_attempt_at TIMESTAMPTZ NOT NULL,
	claimed_by      TEXT,
	claimed_at      TIMESTAMPTZ,
	sent_at         TIMESTAMPTZ,
	last_error      TEXT
);

CREATE INDEX IF NOT EXISTS outbox_due_idx ON outbox (state, next_attempt_at);

CREATE TABLE IF NOT EXISTS idempotency (
	key         TEXT PRIMARY KEY,
	payload     BYTEA,
	in_flight   BOOLEAN NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
`

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
