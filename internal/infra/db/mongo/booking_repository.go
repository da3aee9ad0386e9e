package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

var (
	ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")
	ErrReadOnlyUnit     = errors.New("mongo: write in read-only unit of work")
)

type BookingRepository struct {
	col      *mongo.Collection
	readOnly bool
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts on (id, version). A stale version either matches nothing and
// collides on _id during the upsert, or matches nothing at all.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if r.readOnly {
		return ErrReadOnlyUnit
	}
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrVersionConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrVersionConflict
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Overlapping(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) ([]availability.Reservation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "range.start", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1, "range": 1, "status": 1})
	cur, err := r.col.Find(ctx, overlapFilter(listingID, dr), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []availability.Reservation
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, availability.Reservation{
			Reference: doc.ID,
			Range:     doc.Range.toRange(),
			Status:    availability.Status(doc.Status),
		})
	}
	return out, cur.Err()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
