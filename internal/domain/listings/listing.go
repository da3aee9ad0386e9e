package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/events"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrNightsRange     = errors.New("listings: min nights must be <= max nights")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrRatesMismatch   = errors.New("listings: rates do not match the listing vertical")
	ErrNotBookable     = errors.New("listings: listing is not active")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing is a rentable unit. Exactly one of Vehicle or Stay rates is set,
// matching Vertical.
type Listing struct {
	ID        ListingID
	Host      HostID
	Title     string
	Vertical  pricing.Vertical
	State     ListingState
	MinNights int
	MaxNights int
	Vehicle   *pricing.VehicleRates
	Stay      *pricing.StayRates
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateListingParams struct {
	ID        ListingID
	Host      HostID
	Title     string
	Vertical  pricing.Vertical
	MinNights int
	MaxNights int
	Vehicle   *pricing.VehicleRates
	Stay      *pricing.StayRates
	Now       time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := checkNights(params.MinNights, params.MaxNights); err != nil {
		return nil, err
	}
	if err := checkRates(params.Vertical, params.Vehicle, params.Stay); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:        params.ID,
		Host:      params.Host,
		Title:     strings.TrimSpace(params.Title),
		Vertical:  params.Vertical,
		State:     ListingDraft,
		MinNights: params.MinNights,
		MaxNights: params.MaxNights,
		Vehicle:   params.Vehicle,
		Stay:      params.Stay,
		CreatedAt: params.Now.UTC(),
		UpdatedAt: params.Now.UTC(),
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, Vertical: listing.Vertical, At: listing.CreatedAt})
	return listing, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if err := checkRates(l.Vertical, l.Vehicle, l.Stay); err != nil {
		return err
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivatedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(now time.Time, reason string) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// UpdateRates replaces the rate configuration. Existing bookings keep the
// snapshot they were priced with.
func (l *Listing) UpdateRates(vehicle *pricing.VehicleRates, stay *pricing.StayRates, minNights, maxNights int, now time.Time) error {
	if err := checkNights(minNights, maxNights); err != nil {
		return err
	}
	if err := checkRates(l.Vertical, vehicle, stay); err != nil {
		return err
	}
	l.Vehicle = vehicle
	l.Stay = stay
	l.MinNights = minNights
	l.MaxNights = maxNights
	l.UpdatedAt = now.UTC()
	l.Record(ListingRatesUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// DurationRules returns the bounds a requested range must meet for this listing.
func (l *Listing) DurationRules(rentalType pricing.RentalType) pricing.DurationRules {
	rules := pricing.DurationRules{MinNights: l.MinNights, MaxNights: l.MaxNights}
	if l.Vertical == pricing.VerticalVehicle {
		rules.RentalType = rentalType
	}
	return rules
}

// Quote validates the duration and prices the range with the current rates.
// rentalType and withDriver are ignored for stays.
func (l *Listing) Quote(r daterange.DateRange, rentalType pricing.RentalType, withDriver bool) (pricing.Snapshot, error) {
	if err := pricing.ValidateDuration(r, l.DurationRules(rentalType)); err != nil {
		return pricing.Snapshot{}, err
	}
	switch l.Vertical {
	case pricing.VerticalVehicle:
		if l.Vehicle == nil {
			return pricing.Snapshot{}, fmt.Errorf("%w: listing %s has no vehicle rates", pricing.ErrMissingRate, l.ID)
		}
		b, err := pricing.CalculateBookingPrice(*l.Vehicle, r, rentalType, withDriver)
		if err != nil {
			return pricing.Snapshot{}, err
		}
		return pricing.VehicleSnapshot(b), nil
	case pricing.VerticalStay:
		if l.Stay == nil {
			return pricing.Snapshot{}, fmt.Errorf("%w: listing %s has no stay rates", pricing.ErrMissingRate, l.ID)
		}
		b, err := pricing.CalculateStaysBookingPrice(*l.Stay, r)
		if err != nil {
			return pricing.Snapshot{}, err
		}
		return pricing.StaySnapshot(b), nil
	default:
		return pricing.Snapshot{}, fmt.Errorf("%w: %q", pricing.ErrUnknownVertical, l.Vertical)
	}
}

func (l *Listing) Bookable() error {
	if l.State != ListingActive {
		return ErrNotBookable
	}
	return nil
}

func checkNights(minNights, maxNights int) error {
	if minNights < 0 || maxNights < 0 {
		return ErrNightsRange
	}
	if maxNights > 0 && minNights > maxNights {
		return ErrNightsRange
	}
	return nil
}

func checkRates(vertical pricing.Vertical, vehicle *pricing.VehicleRates, stay *pricing.StayRates) error {
	switch vertical {
	case pricing.VerticalVehicle:
		if vehicle == nil || stay != nil {
			return ErrRatesMismatch
		}
	case pricing.VerticalStay:
		if stay == nil || vehicle != nil {
			return ErrRatesMismatch
		}
	default:
		return fmt.Errorf("%w: %q", pricing.ErrUnknownVertical, vertical)
	}
	return nil
}
