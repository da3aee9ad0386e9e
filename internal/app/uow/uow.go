package uow

import (
	"context"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
// Outbox writes join the same transaction as the aggregates that raised them.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Bookings() domainbooking.Repository
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
