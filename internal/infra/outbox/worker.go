package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
)

// ClaimLease is how long a claimed message stays invisible to other workers.
// A worker that dies mid-publish leaves the message claimable again afterwards.
const ClaimLease = time.Minute

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Message is a stored outbox record together with its delivery attempts.
type Message struct {
	Record   appoutbox.EventRecord
	Attempts int
}

// Store is the relay side of the outbox table/collection.
type Store interface {
	// Claim marks up to limit due messages as owned by workerID and returns them
	// oldest first.
	Claim(ctx context.Context, workerID string, limit int, now time.Time) ([]Message, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, next time.Time, cause string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays committed outbox records to the broker as CloudEvents.
type Worker struct {
	Store       Store
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	BatchSize   int
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time

	wake chan struct{}
}

func NewWorker(w Worker) *Worker {
	w.wake = make(chan struct{}, 1)
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return &w
}

// Flush asks the worker to drain now instead of waiting for the next tick.
// It never blocks.
func (w *Worker) Flush(context.Context) error {
	if w.wake == nil {
		return nil
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.wake == nil {
		w.wake = make(chan struct{}, 1)
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.wake:
		}
		if err := w.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger().Error("outbox drain failed", "error", err)
		}
	}
}

// Drain publishes full batches until the store runs dry or a publish fails;
// failed messages wait for their backoff.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		n, failed, err := w.processBatch(ctx)
		if err != nil {
			return err
		}
		if n < w.batchSize() || failed > 0 {
			return nil
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) (claimed, failed int, err error) {
	msgs, err := w.Store.Claim(ctx, w.ID, w.batchSize(), w.now())
	if err != nil {
		return 0, 0, err
	}
	for _, msg := range msgs {
		if err := w.publish(ctx, msg.Record); err != nil {
			next := w.nextRetry(msg.Attempts)
			w.logger().Warn("outbox publish failed",
				"id", msg.Record.ID,
				"event", msg.Record.Name,
				"attempts", msg.Attempts+1,
				"retry_at", next,
				"error", err,
			)
			failed++
			if markErr := w.Store.MarkFailed(ctx, msg.Record.ID, next, err.Error()); markErr != nil {
				return 0, failed, markErr
			}
			continue
		}
		if err := w.Store.MarkSent(ctx, msg.Record.ID, w.now()); err != nil {
			return 0, failed, err
		}
	}
	return len(msgs), failed, nil
}

func (w *Worker) publish(ctx context.Context, rec appoutbox.EventRecord) error {
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		return err
	}
	return w.Producer.Publish(ctx, w.topicFor(rec.Name), rec.Aggregate, payload, headers)
}

func (w *Worker) formatPayload(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps booking.requested to <prefix>booking.events.v1.
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := w.now()
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://trevo"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var _ appoutbox.Relay = (*Worker)(nil)
