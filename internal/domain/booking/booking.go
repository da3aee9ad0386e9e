package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/events"
)

var (
	ErrInvalidGuests   = errors.New("booking: guests count must be positive")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrZeroTotal       = errors.New("booking: total must be positive")
	ErrVersionConflict = errors.New("booking: concurrent modification")
	ErrStartInPast     = errors.New("booking: start date is in the past")
)

type BookingID string

type Booking struct {
	ID         BookingID
	ListingID  listings.ListingID
	GuestID    string
	Vertical   pricing.Vertical
	Range      daterange.DateRange
	RentalType pricing.RentalType
	WithDriver bool
	Guests     int
	Price      pricing.Snapshot
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// Overlapping returns reservations of listingID whose range overlaps r
	// in any status; callers filter by their blocking set.
	Overlapping(ctx context.Context, listingID listings.ListingID, r daterange.DateRange) ([]availability.Reservation, error)
}

type CreateParams struct {
	ID         BookingID
	ListingID  listings.ListingID
	GuestID    string
	Range      daterange.DateRange
	RentalType pricing.RentalType
	WithDriver bool
	Guests     int
	Price      pricing.Snapshot
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("booking: id required")
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, errors.New("booking: guest id required")
	}
	if params.Guests < 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if err := params.Price.Validate(); err != nil {
		return nil, err
	}
	if !params.Price.Total().IsPositive() {
		return nil, ErrZeroTotal
	}
	guests := params.Guests
	if guests == 0 {
		guests = 1
	}
	rentalType := params.RentalType
	if params.Price.Vertical == pricing.VerticalStay {
		rentalType = ""
	}

	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		ListingID:  params.ListingID,
		GuestID:    params.GuestID,
		Vertical:   params.Price.Vertical,
		Range:      params.Range,
		RentalType: rentalType,
		WithDriver: params.WithDriver && params.Price.Vertical == pricing.VerticalVehicle,
		Guests:     guests,
		Price:      params.Price.Copy(),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		Vertical:  b.Vertical,
		Range:     b.Range,
		Guests:    b.Guests,
		Total:     b.Price.Total(),
		At:        now,
	})
	return b, nil
}

// ValidateStart rejects a start before today, where today is the calendar
// day now falls on in the zone start was given in.
func ValidateStart(start, now time.Time) error {
	if daterange.Midnight(start).Before(daterange.Midnight(now.In(start.Location()))) {
		return fmt.Errorf("%w: %s", ErrStartInPast, start.Format(time.DateOnly))
	}
	return nil
}

// Transition moves the booking along the allowed-transition table.
func (b *Booking) Transition(to Status, reason string, now time.Time) error {
	if err := ValidateTransition(b.Status, to); err != nil {
		return err
	}
	from := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{
		BookingID: b.ID,
		ListingID: b.ListingID,
		From:      from,
		To:        to,
		Reason:    reason,
		At:        b.UpdatedAt,
	})
	return nil
}

// Reservation is the view of the booking used for conflict checks.
func (b *Booking) Reservation() availability.Reservation {
	return availability.Reservation{Reference: string(b.ID), Range: b.Range, Status: b.Status}
}

// Blocks reports whether the booking holds inventory under the given set.
func (b *Booking) Blocks(blocking availability.StatusSet) bool {
	return blocking.Contains(b.Status)
}

func (b *Booking) String() string {
	return fmt.Sprintf("booking %s (%s %s)", b.ID, b.Vertical, b.Status)
}
