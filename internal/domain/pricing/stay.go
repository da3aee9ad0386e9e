package pricing

import (
	"fmt"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

const (
	nightsPerWeek  = 7
	nightsPerMonth = 30
)

// Tier names the bundling that produced a stay's nights subtotal.
type Tier string

const (
	TierNightly Tier = "NIGHTLY"
	TierWeekly  Tier = "WEEKLY"
	TierMonthly Tier = "MONTHLY"
)

// StayRates is the priced part of a stay listing in minor units of Currency.
type StayRates struct {
	Currency        string `json:"currency" bson:"currency"`
	PricePerNight   int64  `json:"price_per_night" bson:"price_per_night"`
	PricePerWeek    *int64 `json:"price_per_week,omitempty" bson:"price_per_week,omitempty"`
	PricePerMonth   *int64 `json:"price_per_month,omitempty" bson:"price_per_month,omitempty"`
	CleaningFee     *int64 `json:"cleaning_fee,omitempty" bson:"cleaning_fee,omitempty"`
	DepositRequired int64  `json:"deposit_required" bson:"deposit_required"`
}

type StayBreakdown struct {
	TotalNights     int         `json:"total_nights" bson:"total_nights"`
	PricePerNight   money.Money `json:"price_per_night" bson:"price_per_night"`
	Tier            Tier        `json:"tier" bson:"tier"`
	NightsSubtotal  money.Money `json:"nights_subtotal" bson:"nights_subtotal"`
	WeeklyDiscount  money.Money `json:"weekly_discount" bson:"weekly_discount"`
	MonthlyDiscount money.Money `json:"monthly_discount" bson:"monthly_discount"`
	CleaningFee     money.Money `json:"cleaning_fee" bson:"cleaning_fee"`
	Subtotal        money.Money `json:"subtotal" bson:"subtotal"`
	Deposit         money.Money `json:"deposit" bson:"deposit"`
	Total           money.Money `json:"total" bson:"total"`
}

type candidate struct {
	tier  Tier
	total int64
}

// CalculateStaysBookingPrice picks the cheapest of nightly, weekly and monthly
// bundling for the guest. Candidates are compared in that order and the first
// minimum wins, so nightly beats an equal weekly total and weekly beats an
// equal monthly one. Discounts are display-only savings against nightly.
func CalculateStaysBookingPrice(rates StayRates, r daterange.DateRange) (StayBreakdown, error) {
	currency, err := money.NormalizeCurrency(rates.Currency)
	if err != nil {
		return StayBreakdown{}, fmt.Errorf("pricing: stay rates: %w", err)
	}
	nights := CountUnits(r)
	if nights <= 0 {
		return StayBreakdown{}, ErrInvalidDuration
	}
	if rates.PricePerNight <= 0 {
		return StayBreakdown{}, missingRate("price_per_night")
	}
	if rates.DepositRequired < 0 {
		return StayBreakdown{}, fmt.Errorf("%w: deposit must be non-negative", ErrMissingRate)
	}

	n := int64(nights)
	base := rates.PricePerNight * n
	candidates := []candidate{{tier: TierNightly, total: base}}
	if rates.PricePerWeek != nil && nights >= nightsPerWeek {
		weekly := (n/nightsPerWeek)*(*rates.PricePerWeek) + (n%nightsPerWeek)*rates.PricePerNight
		candidates = append(candidates, candidate{tier: TierWeekly, total: weekly})
	}
	if rates.PricePerMonth != nil && nights >= nightsPerMonth {
		monthly := (n/nightsPerMonth)*(*rates.PricePerMonth) + (n%nightsPerMonth)*rates.PricePerNight
		candidates = append(candidates, candidate{tier: TierMonthly, total: monthly})
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.total < best.total {
			best = c
		}
	}

	zero := money.Zero(currency)
	out := StayBreakdown{
		TotalNights:     nights,
		PricePerNight:   money.Money{Amount: rates.PricePerNight, Currency: currency},
		Tier:            best.tier,
		NightsSubtotal:  money.Money{Amount: best.total, Currency: currency},
		WeeklyDiscount:  zero,
		MonthlyDiscount: zero,
		CleaningFee:     zero,
		Deposit:         money.Money{Amount: rates.DepositRequired, Currency: currency},
	}
	savings := money.Money{Amount: base - best.total, Currency: currency}
	switch best.tier {
	case TierWeekly:
		out.WeeklyDiscount = savings
	case TierMonthly:
		out.MonthlyDiscount = savings
	}
	if rates.CleaningFee != nil {
		if *rates.CleaningFee < 0 {
			return StayBreakdown{}, fmt.Errorf("%w: cleaning fee must be non-negative", ErrMissingRate)
		}
		out.CleaningFee = money.Money{Amount: *rates.CleaningFee, Currency: currency}
	}

	out.Subtotal, err = out.NightsSubtotal.Add(out.CleaningFee)
	if err != nil {
		return StayBreakdown{}, err
	}
	out.Total = out.Subtotal
	return out, nil
}
