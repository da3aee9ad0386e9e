package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/support"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string    `json:"-"`
	ListingID       string    `json:"listing_id" validate:"required"`
	GuestID         string    `json:"guest_id" validate:"required"`
	Start           time.Time `json:"start" validate:"required"`
	End             time.Time `json:"end" validate:"required,gtfield=Start"`
	RentalType      string    `json:"rental_type" validate:"omitempty,rental_type"`
	WithDriver      bool      `json:"with_driver"`
	Guests          int       `json:"guests" validate:"gte=0,lte=50"`
	IdempotencyKeyV string    `json:"-"`
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

// LockKey serialises bookings of one listing across the conflict check and insert.
func (c RequestBookingCommand) LockKey() string { return listingLockKey(c.ListingID) }

func listingLockKey(id string) string { return "listing:" + id }

func (c RequestBookingCommand) Capability() access.Capability { return access.BookingCreate }

type RequestBookingResult struct {
	Booking dto.Booking `json:"booking"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Blocking   policies.BlockingPolicy
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ctx, finish, err := support.Unit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	res, err := h.request(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *RequestBookingHandler) request(ctx context.Context, unit uow.UnitOfWork, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	now := h.now()
	r, err := daterange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	if err := domainbooking.ValidateStart(cmd.Start, now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.Bookable(); err != nil {
		return nil, err
	}

	rentalType := pricing.RentalType("")
	if listing.Vertical == pricing.VerticalVehicle {
		if rentalType, err = pricing.ParseRentalType(cmd.RentalType); err != nil {
			return nil, err
		}
	}
	if err := pricing.ValidateDuration(r, listing.DurationRules(rentalType)); err != nil {
		return nil, err
	}

	blocking, err := h.blocking().For(listing.Vertical)
	if err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().Overlapping(ctx, listing.ID, r)
	if err != nil {
		return nil, err
	}
	if err := availability.Check(r, existing, blocking); err != nil {
		h.logger().WarnContext(ctx, "booking conflict",
			"listing_id", listing.ID,
			"start", r.Start.Format(time.DateOnly),
			"end", r.End.Format(time.DateOnly),
			"conflicts", len(availability.Conflicts(r, existing, blocking)),
		)
		return nil, err
	}

	price, err := listing.Quote(r, rentalType, cmd.WithDriver)
	if err != nil {
		return nil, err
	}

	id := cmd.CommandID
	if id == "" {
		id = h.newID()
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		ListingID:  listing.ID,
		GuestID:    cmd.GuestID,
		Range:      r,
		RentalType: rentalType,
		WithDriver: cmd.WithDriver,
		Guests:     cmd.Guests,
		Price:      price,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, booking.DrainEvents()); err != nil {
		return nil, err
	}

	return &RequestBookingResult{Booking: dto.MapBooking(booking)}, nil
}

func (h *RequestBookingHandler) blocking() policies.BlockingPolicy {
	if h.Blocking != nil {
		return h.Blocking
	}
	return availability.DefaultPolicy()
}

func (h *RequestBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *RequestBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var (
	_ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
	_ commands.Idempotent                                            = RequestBookingCommand{}
	_ commands.Locked                                                = RequestBookingCommand{}
	_ access.Guarded                                                 = RequestBookingCommand{}
)
