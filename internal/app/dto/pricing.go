package dto

import (
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Display: value.Decimal()}
}

func mapMoneyPtr(value *money.Money) *MoneyDTO {
	if value == nil {
		return nil
	}
	out := MapMoney(*value)
	return &out
}

type VehicleBreakdown struct {
	RentalType        string    `json:"rental_type"`
	TotalDays         int       `json:"total_days"`
	TotalMonths       *int      `json:"total_months,omitempty"`
	DailyRate         MoneyDTO  `json:"daily_rate"`
	MonthlyRate       MoneyDTO  `json:"monthly_rate"`
	VehicleSubtotal   MoneyDTO  `json:"vehicle_subtotal"`
	WithDriver        bool      `json:"with_driver"`
	DriverDailyRate   MoneyDTO  `json:"driver_daily_rate"`
	DriverMonthlyRate MoneyDTO  `json:"driver_monthly_rate"`
	DriverSubtotal    MoneyDTO  `json:"driver_subtotal"`
	IncludedKm        *int      `json:"included_km,omitempty"`
	ExtraKmRate       *MoneyDTO `json:"extra_km_rate,omitempty"`
	Subtotal          MoneyDTO  `json:"subtotal"`
	Deposit           MoneyDTO  `json:"deposit"`
	Total             MoneyDTO  `json:"total"`
}

type StayBreakdown struct {
	TotalNights     int      `json:"total_nights"`
	Tier            string   `json:"tier"`
	PricePerNight   MoneyDTO `json:"price_per_night"`
	NightsSubtotal  MoneyDTO `json:"nights_subtotal"`
	WeeklyDiscount  MoneyDTO `json:"weekly_discount"`
	MonthlyDiscount MoneyDTO `json:"monthly_discount"`
	CleaningFee     MoneyDTO `json:"cleaning_fee"`
	Subtotal        MoneyDTO `json:"subtotal"`
	Deposit         MoneyDTO `json:"deposit"`
	Total           MoneyDTO `json:"total"`
}

// PriceSnapshot is the wire form of pricing.Snapshot; one breakdown is set.
type PriceSnapshot struct {
	Vertical string            `json:"vertical"`
	Total    MoneyDTO          `json:"total"`
	Deposit  MoneyDTO          `json:"deposit"`
	Vehicle  *VehicleBreakdown `json:"vehicle,omitempty"`
	Stay     *StayBreakdown    `json:"stay,omitempty"`
}

func MapSnapshot(s pricing.Snapshot) PriceSnapshot {
	out := PriceSnapshot{
		Vertical: string(s.Vertical),
		Total:    MapMoney(s.Total()),
		Deposit:  MapMoney(s.Deposit()),
	}
	if v := s.Vehicle; v != nil {
		out.Vehicle = &VehicleBreakdown{
			RentalType:        string(v.RentalType),
			TotalDays:         v.TotalDays,
			TotalMonths:       v.TotalMonths,
			DailyRate:         MapMoney(v.DailyRate),
			MonthlyRate:       MapMoney(v.MonthlyRate),
			VehicleSubtotal:   MapMoney(v.VehicleSubtotal),
			WithDriver:        v.WithDriver,
			DriverDailyRate:   MapMoney(v.DriverDailyRate),
			DriverMonthlyRate: MapMoney(v.DriverMonthlyRate),
			DriverSubtotal:    MapMoney(v.DriverSubtotal),
			IncludedKm:        v.IncludedKm,
			ExtraKmRate:       mapMoneyPtr(v.ExtraKmRate),
			Subtotal:          MapMoney(v.Subtotal),
			Deposit:           MapMoney(v.Deposit),
			Total:             MapMoney(v.Total),
		}
	}
	if st := s.Stay; st != nil {
		out.Stay = &StayBreakdown{
			TotalNights:     st.TotalNights,
			Tier:            string(st.Tier),
			PricePerNight:   MapMoney(st.PricePerNight),
			NightsSubtotal:  MapMoney(st.NightsSubtotal),
			WeeklyDiscount:  MapMoney(st.WeeklyDiscount),
			MonthlyDiscount: MapMoney(st.MonthlyDiscount),
			CleaningFee:     MapMoney(st.CleaningFee),
			Subtotal:        MapMoney(st.Subtotal),
			Deposit:         MapMoney(st.Deposit),
			Total:           MapMoney(st.Total),
		}
	}
	return out
}

type Quote struct {
	ListingID string        `json:"listing_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Units     int           `json:"units"`
	Price     PriceSnapshot `json:"price"`
}

func MapQuote(listingID string, r daterange.DateRange, s pricing.Snapshot) Quote {
	return Quote{ListingID: listingID, Start: r.Start, End: r.End, Units: s.Units(), Price: MapSnapshot(s)}
}
