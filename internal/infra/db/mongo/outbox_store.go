package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	infraoutbox "github.com/hironxdev/trevo.lk-sub002/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

type OutboxStore struct {
	col      *mongo.Collection
	readOnly bool
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{col: db.Collection(outboxCollection)}
}

// Add inserts with the caller's context so the write joins an open session.
func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if s.readOnly {
		return ErrReadOnlyUnit
	}
	now := time.Now().UTC()
	doc := eventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

type eventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      time.Time         `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
}

func (d eventDocument) toMessage() infraoutbox.Message {
	return infraoutbox.Message{
		Record: appoutbox.EventRecord{
			ID:         d.ID,
			Name:       d.Name,
			Payload:    d.Payload,
			OccurredAt: d.OccurredAt,
			Aggregate:  d.Aggregate,
			Headers:    d.Headers,
		},
		Attempts: d.Attempts,
	}
}

// claimFilter matches due messages and claims whose lease ran out.
func claimFilter(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": bson.A{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-infraoutbox.ClaimLease)}},
	}}
}

// Claim takes messages one at a time with FindOneAndUpdate so two workers
// never receive the same message.
func (s *OutboxStore) Claim(ctx context.Context, workerID string, limit int, now time.Time) ([]infraoutbox.Message, error) {
	now = now.UTC()
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}, {Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)

	var out []infraoutbox.Message
	for len(out) < limit {
		var doc eventDocument
		err := s.col.FindOneAndUpdate(ctx, claimFilter(now), update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, doc.toMessage())
	}
	return out, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": at.UTC()}})
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, cause string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           stateFailed,
			"next_attempt_at": next.UTC(),
			"last_error":      cause,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
