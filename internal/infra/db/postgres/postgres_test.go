package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

func day(n int) time.Time { return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC) }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func stayBooking(t *testing.T) *domainbooking.Booking {
	t.Helper()
	r := daterange.DateRange{Start: day(10), End: day(13)}
	breakdown, err := pricing.CalculateStaysBookingPrice(pricing.StayRates{Currency: "LKR", PricePerNight: 2500000}, r)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "bk-1", ListingID: "villa-1", GuestID: "guest-1", Range: r,
		Price: pricing.StaySnapshot(breakdown), CreatedAt: day(1),
	})
	require.NoError(t, err)
	return b
}

func TestBookingRepository_SaveInsertsNewVersion(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)
	b := stayBooking(t)

	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs("bk-1", "villa-1", "guest-1", "STAY", day(10), day(13), "", false, 1,
			sqlmock.AnyArg(), "PENDING", day(1), day(1), int64(1), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	require.NoError(t, repo.Save(context.Background(), b))
	assert.Equal(t, int64(1), b.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_SaveStaleVersion(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)
	b := stayBooking(t)
	b.Version = 2

	mock.ExpectQuery("INSERT INTO bookings").WillReturnError(sql.ErrNoRows)

	err := repo.Save(context.Background(), b)
	assert.ErrorIs(t, err, domainbooking.ErrVersionConflict)
	assert.Equal(t, int64(2), b.Version)
}

func TestBookingRepository_ExclusionViolationIsConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery("INSERT INTO bookings").WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})

	err := repo.Save(context.Background(), stayBooking(t))
	assert.ErrorIs(t, err, availability.ErrConflictDetected)
}

func TestBookingRepository_ByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)
	b := stayBooking(t)
	price, err := json.Marshal(b.Price)
	require.NoError(t, err)

	cols := []string{"id", "listing_id", "guest_id", "vertical", "start_at", "end_at", "rental_type", "with_driver", "guests", "price", "status", "created_at", "updated_at", "version"}
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
		WithArgs("bk-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("bk-1", "villa-1", "guest-1", "STAY", day(10), day(13), "", false, 1, price, "CONFIRMED", day(1), day(2), int64(4)))

	got, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, got.Status)
	assert.Equal(t, b.Price.Total(), got.Price.Total())
	assert.Equal(t, int64(4), got.Version)

	mock.ExpectQuery("SELECT (.+) FROM bookings").WillReturnError(sql.ErrNoRows)
	_, err = repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestBookingRepository_Overlapping(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT id, start_at, end_at, status FROM bookings").
		WithArgs("villa-1", day(12), day(15)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_at", "end_at", "status"}).
			AddRow("bk-1", day(10), day(13), "PENDING").
			AddRow("bk-2", day(14), day(16), "CANCELLED"))

	got, err := repo.Overlapping(context.Background(), "villa-1", daterange.DateRange{Start: day(12), End: day(15)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bk-1", got[0].Reference)
	assert.Equal(t, availability.StatusCancelled, got[1].Status)
}

func TestListingRepository_ByIDDecodesRates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListingRepository(db)
	stay, err := json.Marshal(pricing.StayRates{Currency: "LKR", PricePerNight: 2500000})
	require.NoError(t, err)

	cols := []string{"id", "host_id", "title", "vertical", "state", "min_nights", "max_nights", "vehicle_rates", "stay_rates", "created_at", "updated_at", "version"}
	mock.ExpectQuery("SELECT (.+) FROM listings WHERE id = \\$1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("villa-1", "host-villa", "Ella", "STAY", "ACTIVE", 2, 0, nil, stay, day(1), day(1), int64(1)))

	l, err := repo.ByID(context.Background(), "villa-1")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.ListingActive, l.State)
	assert.Nil(t, l.Vehicle)
	require.NotNil(t, l.Stay)
	assert.Equal(t, int64(2500000), l.Stay.PricePerNight)
}

func TestOutboxStore_ClaimOrdersByOccurrence(t *testing.T) {
	db, mock := newMock(t)
	store := NewOutboxStore(db)
	now := day(5)

	rows := sqlmock.NewRows([]string{"id", "name", "payload", "occurred_at", "aggregate", "headers", "attempts"}).
		AddRow("ev-2", "booking.status_changed", []byte(`{}`), day(3), "bk-1", []byte(`{"traceparent":"00-abc"}`), 1).
		AddRow("ev-1", "booking.requested", []byte(`{}`), day(2), "bk-1", []byte(`{}`), 0)
	mock.ExpectQuery("UPDATE outbox SET state = 'CLAIMED'").
		WithArgs("worker-1", now, sqlmock.AnyArg(), 10).
		WillReturnRows(rows)

	msgs, err := store.Claim(context.Background(), "worker-1", 10, now)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ev-1", msgs[0].Record.ID)
	assert.Equal(t, "00-abc", msgs[1].Record.Headers["traceparent"])
	assert.Equal(t, 1, msgs[1].Attempts)
}

func TestOutboxStore_MarkFailed(t *testing.T) {
	db, mock := newMock(t)
	store := NewOutboxStore(db)

	mock.ExpectExec("UPDATE outbox SET state = 'FAILED'").
		WithArgs("ev-1", day(6), "broker down").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkFailed(context.Background(), "ev-1", day(6), "broker down"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Reserve(t *testing.T) {
	db, mock := newMock(t)
	store := NewIdempotencyStore(db, time.Hour)

	mock.ExpectQuery("INSERT INTO idempotency").WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("k"))
	ok, err := store.Reserve(context.Background(), "k", day(1))
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("INSERT INTO idempotency").WillReturnError(sql.ErrNoRows)
	ok, err = store.Reserve(context.Background(), "k", day(1))
	require.NoError(t, err)
	assert.False(t, ok, "live record keeps the key")
}

func TestUnitCommitsOutboxWithBooking(t *testing.T) {
	db, mock := newMock(t)
	factory := Factory{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO outbox").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	b := stayBooking(t)
	require.NoError(t, unit.Bookings().Save(ctx, b))
	require.NoError(t, appoutbox.RecordDomainEvents(ctx, unit.Outbox(), nil, b.DrainEvents()))
	require.NoError(t, unit.Commit(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx := context.Background()
	unit, err := Factory{DB: db}.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Bookings().Save(ctx, stayBooking(t)), ErrReadOnlyUnit)
	require.NoError(t, unit.Rollback(ctx))
}
