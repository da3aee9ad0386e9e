package pricing

import (
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

// LongTermMonthDays is the fixed month length used for long-term vehicle
// rentals. Billing depends on this exact value; it is not a calendar month.
const LongTermMonthDays = 30

// DurationRules are the per-listing bounds a requested range must satisfy.
// Zero MinNights/MaxNights mean "no bound".
type DurationRules struct {
	RentalType RentalType
	MinNights  int
	MaxNights  int
}

// CountUnits returns billable days/nights between two dates; see daterange.CountUnits.
func CountUnits(r daterange.DateRange) int {
	return daterange.CountUnits(r.Start, r.End)
}

// MonthsFor converts a day count to 30-day billing months, rounding up.
func MonthsFor(totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	return (totalDays + LongTermMonthDays - 1) / LongTermMonthDays
}

// ValidateDuration checks a range against the rules of its vertical.
func ValidateDuration(r daterange.DateRange, rules DurationRules) error {
	units := CountUnits(r)
	if units <= 0 {
		return ErrInvalidDuration
	}
	if rules.RentalType == RentalLongTerm && units < LongTermMonthDays {
		return &DurationError{Err: ErrDurationTooShort, Unit: "days", Limit: LongTermMonthDays, Actual: units}
	}
	if rules.MinNights > 0 && units < rules.MinNights {
		return &DurationError{Err: ErrDurationTooShort, Unit: "nights", Limit: rules.MinNights, Actual: units}
	}
	if rules.MaxNights > 0 && units > rules.MaxNights {
		return &DurationError{Err: ErrDurationTooLong, Unit: "nights", Limit: rules.MaxNights, Actual: units}
	}
	return nil
}
