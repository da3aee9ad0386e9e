package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a session. Write units run inside a snapshot transaction so
// the conflict check and the insert see one consistent view; read-only
// units skip the transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{
		session:  session,
		readOnly: opts.ReadOnly,
		listings: &ListingRepository{col: f.DB.Collection(listingsCollection), readOnly: opts.ReadOnly},
		bookings: &BookingRepository{col: f.DB.Collection(bookingsCollection), readOnly: opts.ReadOnly},
		outbox:   &OutboxStore{col: f.DB.Collection(outboxCollection), readOnly: opts.ReadOnly},
	}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	listings *ListingRepository
	bookings *BookingRepository
	outbox   *OutboxStore
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository         { return u.bookings }
func (u *Unit) Outbox() appoutbox.Outbox                   { return u.outbox }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
