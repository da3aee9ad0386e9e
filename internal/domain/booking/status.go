package booking

import (
	"errors"
	"fmt"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
)

var ErrInvalidTransition = errors.New("booking: status transition not allowed")

// Status shares its values with availability so reservations and bookings
// never need translating.
type Status = availability.Status

const (
	StatusPending   = availability.StatusPending
	StatusConfirmed = availability.StatusConfirmed
	StatusActive    = availability.StatusActive
	StatusCompleted = availability.StatusCompleted
	StatusCancelled = availability.StatusCancelled
	StatusRejected  = availability.StatusRejected
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusRejected},
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidateTransition(from, to Status) error {
	if Terminal(from) {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Terminal reports whether no transition leaves status.
func Terminal(status Status) bool {
	return len(transitions[status]) == 0
}

// AllowedTransitions lists the statuses reachable from status in one step.
func AllowedTransitions(from Status) []Status {
	return append([]Status(nil), transitions[from]...)
}
