package postgres

import (
	"context"
	"database/sql"
	"errors"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing database")

// Factory opens one sql.Tx per unit; every repository of the unit runs on it.
type Factory struct {
	DB *sql.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx, err := f.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, err
	}
	return &Unit{
		tx:       tx,
		listings: &ListingRepository{q: tx, readOnly: opts.ReadOnly},
		bookings: &BookingRepository{q: tx, readOnly: opts.ReadOnly},
		outbox:   &OutboxStore{q: tx, readOnly: opts.ReadOnly},
	}, nil
}

type Unit struct {
	tx *sql.Tx

	listings *ListingRepository
	bookings *BookingRepository
	outbox   *OutboxStore
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository         { return u.bookings }
func (u *Unit) Outbox() appoutbox.Outbox                   { return u.outbox }

// Commit surfaces deferred constraint failures as domain errors.
func (u *Unit) Commit(context.Context) error {
	return translate(u.tx.Commit())
}

func (u *Unit) Rollback(context.Context) error {
	err := u.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

var _ uow.UoWFactory = Factory{}
