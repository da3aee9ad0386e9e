package booking

import (
	"context"
	"fmt"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/support"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) Capability() access.Capability { return access.BookingRead }

func (q GetBookingQuery) Target() string { return "booking:" + q.BookingID }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the booking to its guest, the listing host or an admin.
func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, ctx, finish, err := support.Unit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Booking{}, err
	}
	res, err := h.get(ctx, unit, q)
	if err := finish(err); err != nil {
		return dto.Booking{}, err
	}
	return res, nil
}

func (h *GetBookingHandler) get(ctx context.Context, unit uow.UnitOfWork, q GetBookingQuery) (dto.Booking, error) {
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	principal, ok := access.PrincipalFrom(ctx)
	if !ok {
		return dto.Booking{}, access.ErrUnauthenticated
	}
	if !principal.Owns(booking.GuestID) {
		listing, err := unit.Listings().ByID(ctx, booking.ListingID)
		if err != nil {
			return dto.Booking{}, err
		}
		if !principal.Owns(string(listing.Host)) {
			return dto.Booking{}, fmt.Errorf("%w: booking %s", access.ErrForbidden, booking.ID)
		}
	}
	return dto.MapBooking(booking), nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
	_ access.Guarded                                = GetBookingQuery{}
	_ queries.Targeted                              = GetBookingQuery{}
)
