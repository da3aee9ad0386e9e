package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type bookingDocument struct {
	ID         string           `bson:"_id"`
	ListingID  string           `bson:"listing_id"`
	GuestID    string           `bson:"guest_id"`
	Vertical   string           `bson:"vertical"`
	Range      rangeDocument    `bson:"range"`
	RentalType string           `bson:"rental_type,omitempty"`
	WithDriver bool             `bson:"with_driver"`
	Guests     int              `bson:"guests"`
	Price      pricing.Snapshot `bson:"price"`
	Status     string           `bson:"status"`
	CreatedAt  int64            `bson:"created_at"`
	UpdatedAt  int64            `bson:"updated_at"`
	Version    int64            `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		GuestID:    b.GuestID,
		Vertical:   string(b.Vertical),
		Range:      newRangeDocument(b.Range),
		RentalType: string(b.RentalType),
		WithDriver: b.WithDriver,
		Guests:     b.Guests,
		Price:      b.Price.Copy(),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
		Version:    b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		ListingID:  domainlistings.ListingID(d.ListingID),
		GuestID:    d.GuestID,
		Vertical:   pricing.Vertical(d.Vertical),
		Range:      d.Range.toRange(),
		RentalType: pricing.RentalType(d.RentalType),
		WithDriver: d.WithDriver,
		Guests:     d.Guests,
		Price:      d.Price,
		Status:     domainbooking.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

type listingDocument struct {
	ID        string                `bson:"_id"`
	Host      string                `bson:"host_id"`
	Title     string                `bson:"title"`
	Vertical  string                `bson:"vertical"`
	State     string                `bson:"state"`
	MinNights int                   `bson:"min_nights"`
	MaxNights int                   `bson:"max_nights"`
	Vehicle   *pricing.VehicleRates `bson:"vehicle,omitempty"`
	Stay      *pricing.StayRates    `bson:"stay,omitempty"`
	CreatedAt int64                 `bson:"created_at"`
	UpdatedAt int64                 `bson:"updated_at"`
	Version   int64                 `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:        string(l.ID),
		Host:      string(l.Host),
		Title:     l.Title,
		Vertical:  string(l.Vertical),
		State:     string(l.State),
		MinNights: l.MinNights,
		MaxNights: l.MaxNights,
		Vehicle:   l.Vehicle,
		Stay:      l.Stay,
		CreatedAt: l.CreatedAt.UnixMilli(),
		UpdatedAt: l.UpdatedAt.UnixMilli(),
		Version:   l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:        domainlistings.ListingID(d.ID),
		Host:      domainlistings.HostID(d.Host),
		Title:     d.Title,
		Vertical:  pricing.Vertical(d.Vertical),
		State:     domainlistings.ListingState(d.State),
		MinNights: d.MinNights,
		MaxNights: d.MaxNights,
		Vehicle:   d.Vehicle,
		Stay:      d.Stay,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func newRangeDocument(r daterange.DateRange) rangeDocument {
	return rangeDocument{Start: r.Start.UnixMilli(), End: r.End.UnixMilli()}
}

func (d rangeDocument) toRange() daterange.DateRange {
	return daterange.DateRange{Start: timestampToTime(d.Start), End: timestampToTime(d.End)}
}

// overlapFilter selects bookings of listingID whose stored range overlaps r
// under the half-open rule start < r.End && end > r.Start.
func overlapFilter(listingID domainlistings.ListingID, r daterange.DateRange) bson.M {
	q := newRangeDocument(r)
	return bson.M{
		"listing_id":  string(listingID),
		"range.start": bson.M{"$lt": q.End},
		"range.end":   bson.M{"$gt": q.Start},
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
