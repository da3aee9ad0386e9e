package memory

import (
	"context"
	"fmt"
	"time"

	appoutbox "github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	infraoutbox "github.com/hironxdev/trevo.lk-sub002/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Claim hands out committed records in insertion order.
func (s *Store) Claim(_ context.Context, workerID string, limit int, now time.Time) ([]infraoutbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []infraoutbox.Message
	for _, e := range s.outbox {
		if len(out) >= limit {
			break
		}
		if !claimable(e, now) {
			continue
		}
		e.State = stateClaimed
		e.ClaimedBy = workerID
		e.ClaimedAt = now
		out = append(out, infraoutbox.Message{Record: e.Record, Attempts: e.Attempts})
	}
	return out, nil
}

func claimable(e *outboxEntry, now time.Time) bool {
	switch e.State {
	case stateNew:
		return true
	case stateFailed:
		return !e.Next.After(now)
	case stateClaimed:
		return !e.ClaimedAt.Add(infraoutbox.ClaimLease).After(now)
	default:
		return false
	}
}

func (s *Store) MarkSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("memory: outbox record %s not found", id)
	}
	e.State = stateSent
	e.SentAt = at
	return nil
}

func (s *Store) MarkFailed(_ context.Context, id string, next time.Time, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("memory: outbox record %s not found", id)
	}
	e.State = stateFailed
	e.Attempts++
	e.Next = next
	e.LastError = cause
	return nil
}

// Pending lists records not yet sent, for diagnostics and tests.
func (s *Store) Pending() []appoutbox.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []appoutbox.EventRecord
	for _, e := range s.outbox {
		if e.State != stateSent {
			out = append(out, e.Record)
		}
	}
	return out
}

var _ infraoutbox.Store = (*Store)(nil)
