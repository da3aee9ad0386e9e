package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
)

const day = 24 * time.Hour

// DateRange represents a half-open interval [Start, End).
// Vehicles read it as pickup/return, stays as check-in/check-out.
type DateRange struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// New builds a validated range of whole calendar days. Each end keeps the
// date it has in the zone it was given in, and the time of day is dropped,
// so a 14:00 check-in and an 11:00 checkout become [check-in day, checkout day).
func New(start, end time.Time) (DateRange, error) {
	dr := Days(start, end)
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Days truncates both ends to their calendar day without validating.
func Days(start, end time.Time) DateRange {
	return DateRange{Start: Midnight(start), End: Midnight(end)}
}

func (dr DateRange) Validate() error {
	if dr.End.IsZero() || dr.Start.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Units is the number of whole calendar days (nights) covered by the range.
func (dr DateRange) Units() int {
	return CountUnits(dr.Start, dr.End)
}

// CountUnits counts calendar days between start and end after dropping the
// time-of-day component of both. It never returns a negative value: end on or
// before start yields 0 and the caller decides how to reject it.
func CountUnits(start, end time.Time) int {
	s := calendarDay(start)
	e := calendarDay(end)
	if !e.After(s) {
		return 0
	}
	diff := e.Sub(s)
	n := int(diff / day)
	if diff%day != 0 {
		n++
	}
	return n
}

// Midnight returns 00:00 UTC of the calendar date t has in its own location,
// so stored ranges compare consistently whatever zone the client sent.
func Midnight(t time.Time) time.Time {
	return calendarDay(t)
}

// UTC arithmetic keeps DST transitions from producing 23h or 25h days.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps is the half-open interval test: touching ranges do not overlap,
// so a return on day D and a pickup on day D are compatible.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}
