package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
)

var ErrConcurrentUpdate = errors.New("postgres: concurrent update detected")

type ListingRepository struct {
	q        Querier
	readOnly bool
}

func NewListingRepository(q Querier) *ListingRepository {
	return &ListingRepository{q: q}
}

const selectListing = `SELECT id, host_id, title, vertical, state, min_nights, max_nights, vehicle_rates, stay_rates, created_at, updated_at, version FROM listings WHERE id = $1`

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var (
		l        domainlistings.Listing
		vertical string
		state    string
		vehicle  []byte
		stay     []byte
	)
	err := r.q.QueryRowContext(ctx, selectListing, string(id)).Scan(
		&l.ID, &l.Host, &l.Title, &vertical, &state, &l.MinNights, &l.MaxNights,
		&vehicle, &stay, &l.CreatedAt, &l.UpdatedAt, &l.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domainlistings.ErrListingNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	l.Vertical = pricing.Vertical(vertical)
	l.State = domainlistings.ListingState(state)
	if len(vehicle) > 0 {
		l.Vehicle = &pricing.VehicleRates{}
		if err := json.Unmarshal(vehicle, l.Vehicle); err != nil {
			return nil, fmt.Errorf("postgres: listing %s vehicle rates: %w", id, err)
		}
	}
	if len(stay) > 0 {
		l.Stay = &pricing.StayRates{}
		if err := json.Unmarshal(stay, l.Stay); err != nil {
			return nil, fmt.Errorf("postgres: listing %s stay rates: %w", id, err)
		}
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

const upsertListing = `INSERT INTO listings (id, host_id, title, vertical, state, min_nights, max_nights, vehicle_rates, stay_rates, created_at, updated_at, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, state = EXCLUDED.state, min_nights = EXCLUDED.min_nights,
	max_nights = EXCLUDED.max_nights, vehicle_rates = EXCLUDED.vehicle_rates, stay_rates = EXCLUDED.stay_rates,
	updated_at = EXCLUDED.updated_at, version = EXCLUDED.version
WHERE listings.version = $13
RETURNING version`

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	if r.readOnly {
		return ErrReadOnlyUnit
	}
	vehicle, err := nullableJSON(l.Vehicle)
	if err != nil {
		return err
	}
	stay, err := nullableJSON(l.Stay)
	if err != nil {
		return err
	}
	var version int64
	err = r.q.QueryRowContext(ctx, upsertListing,
		string(l.ID), string(l.Host), l.Title, string(l.Vertical), string(l.State), l.MinNights, l.MaxNights,
		vehicle, stay, l.CreatedAt, l.UpdatedAt, l.Version+1, l.Version,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConcurrentUpdate
	}
	if err != nil {
		return err
	}
	l.Version = version
	return nil
}

// nullableJSON returns an untyped nil for nil so the column is stored as NULL.
func nullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
