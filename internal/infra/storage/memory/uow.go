package memory

import (
	"context"
	"fmt"
	"sync"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

// Unit is a uow.UnitOfWork over a Store. Reads see the unit's own staged
// writes first; nothing reaches the store before Commit.
type Unit struct {
	store    *Store
	readOnly bool

	mu     sync.Mutex
	done   bool
	staged *staging
}

func (u *Unit) Listings() domainlistings.ListingRepository { return unitListings{u} }
func (u *Unit) Bookings() domainbooking.Repository         { return unitBookings{u} }
func (u *Unit) Outbox() appoutbox.Outbox                   { return unitOutbox{u} }

func (u *Unit) Commit(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	return u.store.apply(u.staged)
}

func (u *Unit) Rollback(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.staged = newStaging()
	return nil
}

func (u *Unit) writable() error {
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	if u.done {
		return fmt.Errorf("memory: unit of work already finished")
	}
	return nil
}

type unitListings struct{ u *Unit }

func (r unitListings) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.u.mu.Lock()
	staged, ok := r.u.staged.listings[id]
	r.u.mu.Unlock()
	if ok {
		return cloneListing(staged), nil
	}
	listing, ok := r.u.store.listing(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainlistings.ErrListingNotFound, id)
	}
	return listing, nil
}

func (r unitListings) Save(_ context.Context, listing *domainlistings.Listing) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.writable(); err != nil {
		return err
	}
	current, staged := r.u.staged.listingBase[listing.ID]
	if !staged {
		current = r.u.store.listingVersion(listing.ID)
		r.u.staged.listingBase[listing.ID] = current
	} else {
		current = r.u.staged.listings[listing.ID].Version
	}
	if current != listing.Version {
		return ErrConcurrentUpdate
	}
	listing.Version++
	r.u.staged.listings[listing.ID] = cloneListing(listing)
	return nil
}

type unitBookings struct{ u *Unit }

func (r unitBookings) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.u.mu.Lock()
	staged, ok := r.u.staged.bookings[id]
	r.u.mu.Unlock()
	if ok {
		return cloneBooking(staged), nil
	}
	booking, ok := r.u.store.booking(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
	}
	return booking, nil
}

func (r unitBookings) Save(_ context.Context, booking *domainbooking.Booking) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if err := r.u.writable(); err != nil {
		return err
	}
	current, staged := r.u.staged.bookingBase[booking.ID]
	if !staged {
		current = r.u.store.bookingVersion(booking.ID)
		r.u.staged.bookingBase[booking.ID] = current
	} else {
		current = r.u.staged.bookings[booking.ID].Version
	}
	if current != booking.Version {
		return domainbooking.ErrVersionConflict
	}
	booking.Version++
	r.u.staged.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

// Overlapping uses the same half-open predicate as the engine.
func (r unitBookings) Overlapping(_ context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) ([]availability.Reservation, error) {
	merged := map[domainbooking.BookingID]*domainbooking.Booking{}
	for _, b := range r.u.store.bookingsOf(listingID) {
		merged[b.ID] = b
	}
	r.u.mu.Lock()
	for id, b := range r.u.staged.bookings {
		if b.ListingID == listingID {
			merged[id] = b
		}
	}
	r.u.mu.Unlock()

	items := make([]*domainbooking.Booking, 0, len(merged))
	for _, b := range merged {
		if b.Range.Overlaps(dr) {
			items = append(items, b)
		}
	}
	sortBookings(items)
	out := make([]availability.Reservation, len(items))
	for i, b := range items {
		out[i] = b.Reservation()
	}
	return out, nil
}

type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.u.mu.Lock()
	defer o.u.mu.Unlock()
	if err := o.u.writable(); err != nil {
		return err
	}
	o.u.staged.records = append(o.u.staged.records, &outboxEntry{Record: record, State: stateNew})
	return nil
}

var (
	_ uow.UnitOfWork                   = (*Unit)(nil)
	_ domainlistings.ListingRepository = unitListings{}
	_ domainbooking.Repository         = unitBookings{}
	_ appoutbox.Outbox                 = unitOutbox{}
)
