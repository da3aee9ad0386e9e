package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/support"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

const (
	quoteVehicleKey = "quotes.vehicle"
	quoteStayKey    = "quotes.stay"
)

var ErrWrongVertical = errors.New("quotes: listing belongs to another vertical")

type QuoteVehicleQuery struct {
	ListingID  string    `json:"listing_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`
	RentalType string    `json:"rental_type" validate:"omitempty,rental_type"`
	WithDriver bool      `json:"with_driver"`
}

func (q QuoteVehicleQuery) Key() string { return quoteVehicleKey }

func (q QuoteVehicleQuery) Capability() access.Capability { return access.QuoteRead }

func (q QuoteVehicleQuery) Target() string { return "listing:" + q.ListingID }

type QuoteStayQuery struct {
	ListingID string    `json:"listing_id" validate:"required"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

func (q QuoteStayQuery) Capability() access.Capability { return access.QuoteRead }

func (q QuoteStayQuery) Target() string { return "listing:" + q.ListingID }

// Handler prices a prospective booking without reserving anything.
type Handler struct {
	UoWFactory uow.UoWFactory
}

func (h *Handler) HandleVehicle(ctx context.Context, q QuoteVehicleQuery) (dto.Quote, error) {
	rentalType, err := pricing.ParseRentalType(q.RentalType)
	if err != nil {
		return dto.Quote{}, err
	}
	return h.quote(ctx, q.ListingID, pricing.VerticalVehicle, q.Start, q.End, rentalType, q.WithDriver)
}

func (h *Handler) HandleStay(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	return h.quote(ctx, q.ListingID, pricing.VerticalStay, q.Start, q.End, "", false)
}

func (h *Handler) quote(ctx context.Context, listingID string, vertical pricing.Vertical, start, end time.Time, rentalType pricing.RentalType, withDriver bool) (dto.Quote, error) {
	r, err := daterange.New(start, end)
	if err != nil {
		return dto.Quote{}, err
	}
	unit, ctx, finish, err := support.Unit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Quote{}, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err := finish(err); err != nil {
		return dto.Quote{}, err
	}
	if listing.Vertical != vertical {
		return dto.Quote{}, fmt.Errorf("%w: %s is %s", ErrWrongVertical, listing.ID, listing.Vertical)
	}
	if err := listing.Bookable(); err != nil {
		return dto.Quote{}, err
	}
	snap, err := listing.Quote(r, rentalType, withDriver)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(string(listing.ID), r, snap), nil
}

// Vehicle and Stay adapt the two entry points to the query bus.
func (h *Handler) Vehicle() queries.Handler[QuoteVehicleQuery, dto.Quote] {
	return queries.HandlerFunc[QuoteVehicleQuery, dto.Quote](h.HandleVehicle)
}

func (h *Handler) Stay() queries.Handler[QuoteStayQuery, dto.Quote] {
	return queries.HandlerFunc[QuoteStayQuery, dto.Quote](h.HandleStay)
}

var (
	_ access.Guarded   = QuoteVehicleQuery{}
	_ access.Guarded   = QuoteStayQuery{}
	_ queries.Targeted = QuoteVehicleQuery{}
	_ queries.Targeted = QuoteStayQuery{}
)
