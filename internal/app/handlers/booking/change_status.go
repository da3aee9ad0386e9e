package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/support"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/middleware"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
)

const changeStatusKey = "booking.change_status"

type ChangeStatusCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Status    string `json:"status" validate:"required,booking_status"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (c ChangeStatusCommand) Key() string { return changeStatusKey }

func (c ChangeStatusCommand) LockKey() string { return "booking:" + c.BookingID }

// Capability lets guests cancel while every other move needs booking:manage.
func (c ChangeStatusCommand) Capability() access.Capability {
	if status, err := availability.ParseStatus(c.Status); err == nil && status == domainbooking.StatusCancelled {
		return access.BookingCancel
	}
	return access.BookingManage
}

type ChangeStatusHandler struct {
	UoWFactory uow.UoWFactory
	Blocking   policies.BlockingPolicy
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ChangeStatusHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) (dto.Booking, error) {
	if err := h.lockListing(ctx, cmd.BookingID); err != nil {
		return dto.Booking{}, err
	}
	unit, ctx, finish, err := support.Unit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return dto.Booking{}, err
	}
	res, err := h.change(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return dto.Booking{}, err
	}
	return res, nil
}

func (h *ChangeStatusHandler) change(ctx context.Context, unit uow.UnitOfWork, cmd ChangeStatusCommand) (dto.Booking, error) {
	to, err := availability.ParseStatus(cmd.Status)
	if err != nil {
		return dto.Booking{}, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return dto.Booking{}, err
	}

	principal, ok := access.PrincipalFrom(ctx)
	if !ok {
		return dto.Booking{}, access.ErrUnauthenticated
	}
	hostOrAdmin := principal.Owns(string(listing.Host))
	guestCancel := to == domainbooking.StatusCancelled && principal.Owns(booking.GuestID)
	if !hostOrAdmin && !guestCancel {
		return dto.Booking{}, fmt.Errorf("%w: booking %s", access.ErrForbidden, booking.ID)
	}

	if err := domainbooking.ValidateTransition(booking.Status, to); err != nil {
		return dto.Booking{}, err
	}

	// A move into a blocking status must not collide with inventory that
	// other bookings already hold, e.g. confirming one of two pending rentals.
	set, err := h.blocking().For(booking.Vertical)
	if err != nil {
		return dto.Booking{}, err
	}
	if set.Contains(to) && !booking.Blocks(set) {
		existing, err := unit.Bookings().Overlapping(ctx, booking.ListingID, booking.Range)
		if err != nil {
			return dto.Booking{}, err
		}
		others := existing[:0:0]
		for _, res := range existing {
			if res.Reference != string(booking.ID) {
				others = append(others, res)
			}
		}
		if err := availability.Check(booking.Range, others, set); err != nil {
			h.logger().WarnContext(ctx, "status change conflicts", "booking_id", booking.ID, "to", to)
			return dto.Booking{}, err
		}
	}

	if err := booking.Transition(to, cmd.Reason, h.now()); err != nil {
		return dto.Booking{}, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return dto.Booking{}, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, booking.DrainEvents()); err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(booking), nil
}

// lockListing serialises status changes with bookings of the same listing.
// The lock is taken before the unit reads anything, so a snapshot
// transaction already sees what the previous holder committed.
func (h *ChangeStatusHandler) lockListing(ctx context.Context, bookingID string) error {
	if !middleware.LockScoped(ctx) {
		return nil
	}
	unit, readCtx, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	booking, err := unit.Bookings().ByID(readCtx, domainbooking.BookingID(bookingID))
	if rbErr := unit.Rollback(readCtx); rbErr != nil {
		h.logger().WarnContext(ctx, "read-only rollback failed", "booking_id", bookingID, "error", rbErr)
	}
	if err != nil {
		return err
	}
	return middleware.HoldLock(ctx, listingLockKey(string(booking.ListingID)))
}

func (h *ChangeStatusHandler) blocking() policies.BlockingPolicy {
	if h.Blocking != nil {
		return h.Blocking
	}
	return availability.DefaultPolicy()
}

func (h *ChangeStatusHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *ChangeStatusHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[ChangeStatusCommand, dto.Booking] = (*ChangeStatusHandler)(nil)
	_ commands.Locked                                    = ChangeStatusCommand{}
	_ access.Guarded                                     = ChangeStatusCommand{}
)
