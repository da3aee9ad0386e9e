package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/events"
)

var (
	ErrReadOnlyUnit          = errors.New("memory: write in read-only unit of work")
	ErrConcurrentUpdate      = errors.New("memory: concurrent update detected")
	ErrDuplicateOutboxRecord = errors.New("memory: outbox record already stored")
)

// Store keeps committed listings, bookings and outbox messages. Units of
// work stage their writes and apply them under one lock on Commit.
type Store struct {
	mu       sync.RWMutex
	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	outbox   []*outboxEntry
	byID     map[string]*outboxEntry
}

func NewStore() *Store {
	return &Store{
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		byID:     make(map[string]*outboxEntry),
	}
}

// Begin opens a unit of work over the store.
func (s *Store) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &Unit{store: s, readOnly: opts.ReadOnly, staged: newStaging()}, nil
}

func (s *Store) listing(id domainlistings.ListingID) (*domainlistings.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, false
	}
	return cloneListing(l), true
}

func (s *Store) booking(id domainbooking.BookingID) (*domainbooking.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, false
	}
	return cloneBooking(b), true
}

func (s *Store) bookingsOf(listingID domainlistings.ListingID) []*domainbooking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range s.bookings {
		if b.ListingID == listingID {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func (s *Store) listingVersion(id domainlistings.ListingID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.listings[id]; ok {
		return l.Version
	}
	return 0
}

func (s *Store) bookingVersion(id domainbooking.BookingID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.bookings[id]; ok {
		return b.Version
	}
	return 0
}

// apply writes a unit's staged state after checking that nothing it read
// has been committed by another unit since. base holds the versions the unit
// started from.
func (s *Store) apply(staged *staging) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range staged.listings {
		var current int64
		if existing, ok := s.listings[id]; ok {
			current = existing.Version
		}
		if current != staged.listingBase[id] {
			return ErrConcurrentUpdate
		}
	}
	for id := range staged.bookings {
		var current int64
		if existing, ok := s.bookings[id]; ok {
			current = existing.Version
		}
		if current != staged.bookingBase[id] {
			return domainbooking.ErrVersionConflict
		}
	}
	for _, rec := range staged.records {
		if _, dup := s.byID[rec.Record.ID]; dup {
			return ErrDuplicateOutboxRecord
		}
	}
	for id, l := range staged.listings {
		s.listings[id] = l
	}
	for id, b := range staged.bookings {
		s.bookings[id] = b
	}
	for _, rec := range staged.records {
		s.outbox = append(s.outbox, rec)
		s.byID[rec.Record.ID] = rec
	}
	return nil
}

type staging struct {
	listings    map[domainlistings.ListingID]*domainlistings.Listing
	listingBase map[domainlistings.ListingID]int64
	bookings    map[domainbooking.BookingID]*domainbooking.Booking
	bookingBase map[domainbooking.BookingID]int64
	records     []*outboxEntry
}

func newStaging() *staging {
	return &staging{
		listings:    make(map[domainlistings.ListingID]*domainlistings.Listing),
		listingBase: make(map[domainlistings.ListingID]int64),
		bookings:    make(map[domainbooking.BookingID]*domainbooking.Booking),
		bookingBase: make(map[domainbooking.BookingID]int64),
	}
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	c := *l
	c.EventRecorder = events.EventRecorder{}
	if l.Vehicle != nil {
		v := *l.Vehicle
		c.Vehicle = &v
	}
	if l.Stay != nil {
		st := *l.Stay
		c.Stay = &st
	}
	return &c
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	c.Price = b.Price.Copy()
	return &c
}

func sortBookings(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Range.Start.Equal(items[j].Range.Start) {
			return items[i].ID < items[j].ID
		}
		return items[i].Range.Start.Before(items[j].Range.Start)
	})
}

type outboxEntry struct {
	Record    appoutbox.EventRecord
	Attempts  int
	State     string
	Next      time.Time
	ClaimedBy string
	ClaimedAt time.Time
	SentAt    time.Time
	LastError string
}

var _ uow.UoWFactory = (*Store)(nil)
