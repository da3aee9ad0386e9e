package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/middleware"
)

type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// NewIdempotencyStore keys records by _id and lets a TTL index expire them.
// The TTL monitor runs about once a minute, so Get also ignores records
// older than ttl.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	col := db.Collection(idempotencyCollection)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, ttl: ttl, now: time.Now}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	if s.now().Sub(doc.CreatedAt) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return doc.toRecord(), true, nil
}

// Reserve relies on the _id unique index: the second writer gets a
// duplicate key error and reports false. An expired leftover is replaced.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, at time.Time) (bool, error) {
	doc := idempotencyDocument{ID: key, InFlight: true, OccurredAt: at.UTC(), CreatedAt: s.now().UTC()}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}
	cutoff := s.now().Add(-s.ttl).UTC()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": key, "created_at": bson.M{"$lt": cutoff}}, doc)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	update := bson.M{"$set": bson.M{
		"payload":     rec.Payload,
		"in_flight":   false,
		"occurred_at": rec.OccurredAt.UTC(),
	}, "$setOnInsert": bson.M{"created_at": s.now().UTC()}}
	_, err := s.col.UpdateByID(ctx, rec.Key, update, options.Update().SetUpsert(true))
	return err
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "in_flight": true})
	return err
}

type idempotencyDocument struct {
	ID         string    `bson:"_id"`
	Payload    []byte    `bson:"payload,omitempty"`
	InFlight   bool      `bson:"in_flight"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: d.ID, Payload: d.Payload, InFlight: d.InFlight, OccurredAt: d.OccurredAt}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
