package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

type BookingRepository struct {
	q        Querier
	readOnly bool
}

func NewBookingRepository(q Querier) *BookingRepository {
	return &BookingRepository{q: q}
}

const selectBooking = `SELECT id, listing_id, guest_id, vertical, start_at, end_at, rental_type, with_driver, guests, price, status, created_at, updated_at, version FROM bookings WHERE id = $1`

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var (
		b        domainbooking.Booking
		listing  string
		vertical string
		rental   string
		status   string
		price    []byte
	)
	err := r.q.QueryRowContext(ctx, selectBooking, string(id)).Scan(
		&b.ID, &listing, &b.GuestID, &vertical, &b.Range.Start, &b.Range.End, &rental,
		&b.WithDriver, &b.Guests, &price, &status, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(price, &b.Price); err != nil {
		return nil, fmt.Errorf("postgres: booking %s price: %w", id, err)
	}
	b.ListingID = domainlistings.ListingID(listing)
	b.Vertical = pricing.Vertical(vertical)
	b.RentalType = pricing.RentalType(rental)
	b.Status = domainbooking.Status(status)
	b.Range.Start = b.Range.Start.UTC()
	b.Range.End = b.Range.End.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// The update only applies when the stored version is the one the caller
// loaded; no returned row means someone else saved first.
const upsertBooking = `INSERT INTO bookings (id, listing_id, guest_id, vertical, start_at, end_at, rental_type, with_driver, guests, price, status, created_at, updated_at, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, version = EXCLUDED.version
WHERE bookings.version = $15
RETURNING version`

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if r.readOnly {
		return ErrReadOnlyUnit
	}
	price, err := json.Marshal(b.Price)
	if err != nil {
		return err
	}
	var version int64
	err = r.q.QueryRowContext(ctx, upsertBooking,
		string(b.ID), string(b.ListingID), b.GuestID, string(b.Vertical), b.Range.Start, b.Range.End,
		string(b.RentalType), b.WithDriver, b.Guests, price, string(b.Status), b.CreatedAt, b.UpdatedAt,
		b.Version+1, b.Version,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return domainbooking.ErrVersionConflict
	}
	if err != nil {
		return translate(err)
	}
	b.Version = version
	return nil
}

const selectOverlapping = `SELECT id, start_at, end_at, status FROM bookings
WHERE listing_id = $1 AND start_at < $3 AND end_at > $2
ORDER BY start_at, id`

func (r *BookingRepository) Overlapping(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) ([]availability.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, selectOverlapping, string(listingID), dr.Start, dr.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Reservation
	for rows.Next() {
		var (
			res    availability.Reservation
			status string
		)
		if err := rows.Scan(&res.Reference, &res.Range.Start, &res.Range.End, &status); err != nil {
			return nil, err
		}
		res.Range.Start = res.Range.Start.UTC()
		res.Range.End = res.Range.End.UTC()
		res.Status = availability.Status(status)
		out = append(out, res)
	}
	return out, rows.Err()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
