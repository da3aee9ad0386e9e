package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDuration   = errors.New("pricing: end must be after start")
	ErrDurationTooShort  = errors.New("pricing: duration too short")
	ErrDurationTooLong   = errors.New("pricing: duration too long")
	ErrMissingRate       = errors.New("pricing: required rate missing or not positive")
	ErrUnknownVertical   = errors.New("pricing: unknown vertical")
	ErrUnknownRentalType = errors.New("pricing: unknown rental type")
)

// DurationError carries the violated bound so callers can render
// "minimum stay is 3 nights" without parsing messages.
type DurationError struct {
	Err    error
	Unit   string
	Limit  int
	Actual int
}

func (e *DurationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDurationTooShort):
		return fmt.Sprintf("%s: %d %s requested, minimum is %d", e.Err, e.Actual, e.Unit, e.Limit)
	case errors.Is(e.Err, ErrDurationTooLong):
		return fmt.Sprintf("%s: %d %s requested, maximum is %d", e.Err, e.Actual, e.Unit, e.Limit)
	default:
		return e.Err.Error()
	}
}

func (e *DurationError) Unwrap() error { return e.Err }

func missingRate(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingRate, field)
}
