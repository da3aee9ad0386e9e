package availability

import (
	"context"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/support"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainavailability "github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	ListingID string    `json:"listing_id" validate:"required"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

func (q CheckAvailabilityQuery) Capability() access.Capability { return access.AvailabilityRead }

func (q CheckAvailabilityQuery) Target() string { return "listing:" + q.ListingID }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Blocking   policies.BlockingPolicy
}

// Handle reports whether the range is free under the listing vertical's
// blocking statuses, and which ranges are in the way when it is not.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	r, err := daterange.New(q.Start, q.End)
	if err != nil {
		return dto.Availability{}, err
	}
	unit, ctx, finish, err := support.Unit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Availability{}, err
	}
	conflicts, err := h.conflicts(ctx, unit, domainlistings.ListingID(q.ListingID), r)
	if err := finish(err); err != nil {
		return dto.Availability{}, err
	}
	return dto.MapAvailability(q.ListingID, r.Start, r.End, conflicts), nil
}

func (h *CheckAvailabilityHandler) conflicts(ctx context.Context, unit uow.UnitOfWork, id domainlistings.ListingID, r daterange.DateRange) ([]domainavailability.Reservation, error) {
	listing, err := unit.Listings().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	policy := h.Blocking
	if policy == nil {
		policy = domainavailability.DefaultPolicy()
	}
	blocking, err := policy.For(listing.Vertical)
	if err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().Overlapping(ctx, listing.ID, r)
	if err != nil {
		return nil, err
	}
	return domainavailability.Conflicts(r, existing, blocking), nil
}

var (
	_ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
	_ access.Guarded                                            = CheckAvailabilityQuery{}
	_ queries.Targeted                                          = CheckAvailabilityQuery{}
)
