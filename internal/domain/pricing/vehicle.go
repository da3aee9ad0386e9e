package pricing

import (
	"fmt"
	"strings"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

type RentalType string

const (
	RentalShortTerm RentalType = "SHORT_TERM"
	RentalLongTerm  RentalType = "LONG_TERM"
)

// ParseRentalType accepts the wire values case-insensitively; empty means short term.
func ParseRentalType(raw string) (RentalType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(RentalShortTerm):
		return RentalShortTerm, nil
	case string(RentalLongTerm):
		return RentalLongTerm, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRentalType, raw)
	}
}

// VehicleRates is the priced part of a vehicle listing. Amounts are minor
// units of Currency; nil pointers mean the listing does not offer that rate.
type VehicleRates struct {
	Currency            string `json:"currency" bson:"currency"`
	PricePerDay         int64  `json:"price_per_day" bson:"price_per_day"`
	PricePerKm          *int64 `json:"price_per_km,omitempty" bson:"price_per_km,omitempty"`
	MonthlyPrice        *int64 `json:"monthly_price,omitempty" bson:"monthly_price,omitempty"`
	DepositRequired     int64  `json:"deposit_required" bson:"deposit_required"`
	DriverPricePerDay   *int64 `json:"driver_price_per_day,omitempty" bson:"driver_price_per_day,omitempty"`
	DriverPricePerKm    *int64 `json:"driver_price_per_km,omitempty" bson:"driver_price_per_km,omitempty"`
	DriverPricePerMonth *int64 `json:"driver_price_per_month,omitempty" bson:"driver_price_per_month,omitempty"`
	IncludedKmPerDay    *int   `json:"included_km_per_day,omitempty" bson:"included_km_per_day,omitempty"`
	IncludedKmPerMonth  *int   `json:"included_km_per_month,omitempty" bson:"included_km_per_month,omitempty"`
	UnlimitedMileage    bool   `json:"unlimited_mileage" bson:"unlimited_mileage"`
}

// VehicleBreakdown is the immutable result of a vehicle quote.
type VehicleBreakdown struct {
	RentalType        RentalType   `json:"rental_type" bson:"rental_type"`
	DailyRate         money.Money  `json:"daily_rate" bson:"daily_rate"`
	MonthlyRate       money.Money  `json:"monthly_rate" bson:"monthly_rate"`
	TotalDays         int          `json:"total_days" bson:"total_days"`
	TotalMonths       *int         `json:"total_months,omitempty" bson:"total_months,omitempty"`
	VehicleSubtotal   money.Money  `json:"vehicle_subtotal" bson:"vehicle_subtotal"`
	WithDriver        bool         `json:"with_driver" bson:"with_driver"`
	DriverDailyRate   money.Money  `json:"driver_daily_rate" bson:"driver_daily_rate"`
	DriverMonthlyRate money.Money  `json:"driver_monthly_rate" bson:"driver_monthly_rate"`
	DriverSubtotal    money.Money  `json:"driver_subtotal" bson:"driver_subtotal"`
	IncludedKm        *int         `json:"included_km,omitempty" bson:"included_km,omitempty"`
	ExtraKmRate       *money.Money `json:"extra_km_rate,omitempty" bson:"extra_km_rate,omitempty"`
	Subtotal          money.Money  `json:"subtotal" bson:"subtotal"`
	Deposit           money.Money  `json:"deposit" bson:"deposit"`
	Total             money.Money  `json:"total" bson:"total"`
}

// CalculateBookingPrice prices a vehicle rental. Long-term rentals with a
// monthly price are billed per 30-day month, everything else per day. The
// deposit is refundable and therefore not part of Total.
func CalculateBookingPrice(rates VehicleRates, r daterange.DateRange, rentalType RentalType, withDriver bool) (VehicleBreakdown, error) {
	currency, err := money.NormalizeCurrency(rates.Currency)
	if err != nil {
		return VehicleBreakdown{}, fmt.Errorf("pricing: vehicle rates: %w", err)
	}
	if rentalType == "" {
		rentalType = RentalShortTerm
	}
	totalDays := CountUnits(r)
	if totalDays <= 0 {
		return VehicleBreakdown{}, ErrInvalidDuration
	}
	if rates.DepositRequired < 0 {
		return VehicleBreakdown{}, fmt.Errorf("%w: deposit must be non-negative", ErrMissingRate)
	}

	zero := money.Zero(currency)
	out := VehicleBreakdown{
		RentalType:        rentalType,
		DailyRate:         zero,
		MonthlyRate:       zero,
		TotalDays:         totalDays,
		WithDriver:        withDriver,
		DriverDailyRate:   zero,
		DriverMonthlyRate: zero,
		DriverSubtotal:    zero,
		Deposit:           money.Money{Amount: rates.DepositRequired, Currency: currency},
	}

	longTerm := rentalType == RentalLongTerm
	if longTerm {
		months := MonthsFor(totalDays)
		out.TotalMonths = &months
	}

	monthly := longTerm && rates.MonthlyPrice != nil
	units := int64(totalDays)
	if monthly {
		if *rates.MonthlyPrice <= 0 {
			return VehicleBreakdown{}, missingRate("monthly_price")
		}
		units = int64(*out.TotalMonths)
		out.MonthlyRate = money.Money{Amount: *rates.MonthlyPrice, Currency: currency}
		out.VehicleSubtotal = out.MonthlyRate.Multiply(units)
	} else {
		if rates.PricePerDay <= 0 {
			return VehicleBreakdown{}, missingRate("price_per_day")
		}
		out.DailyRate = money.Money{Amount: rates.PricePerDay, Currency: currency}
		out.VehicleSubtotal = out.DailyRate.Multiply(units)
	}

	if withDriver {
		if monthly {
			if rates.DriverPricePerMonth == nil || *rates.DriverPricePerMonth <= 0 {
				return VehicleBreakdown{}, missingRate("driver_price_per_month")
			}
			out.DriverMonthlyRate = money.Money{Amount: *rates.DriverPricePerMonth, Currency: currency}
			out.DriverSubtotal = out.DriverMonthlyRate.Multiply(units)
		} else {
			if rates.DriverPricePerDay == nil || *rates.DriverPricePerDay <= 0 {
				return VehicleBreakdown{}, missingRate("driver_price_per_day")
			}
			out.DriverDailyRate = money.Money{Amount: *rates.DriverPricePerDay, Currency: currency}
			out.DriverSubtotal = out.DriverDailyRate.Multiply(units)
		}
	}

	out.IncludedKm = includedKm(rates, longTerm, totalDays, out.TotalMonths)
	if rates.PricePerKm != nil {
		rate := money.Money{Amount: *rates.PricePerKm, Currency: currency}
		out.ExtraKmRate = &rate
	}

	out.Subtotal, err = out.VehicleSubtotal.Add(out.DriverSubtotal)
	if err != nil {
		return VehicleBreakdown{}, err
	}
	out.Total = out.Subtotal
	return out, nil
}

// includedKm is informational; overage is billed on return when the
// odometer reading is known.
func includedKm(rates VehicleRates, longTerm bool, totalDays int, totalMonths *int) *int {
	if rates.UnlimitedMileage {
		return nil
	}
	if longTerm {
		if rates.IncludedKmPerMonth == nil || totalMonths == nil {
			return nil
		}
		km := *rates.IncludedKmPerMonth * *totalMonths
		return &km
	}
	if rates.IncludedKmPerDay == nil {
		return nil
	}
	km := *rates.IncludedKmPerDay * totalDays
	return &km
}
