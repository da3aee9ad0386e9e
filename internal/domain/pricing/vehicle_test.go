package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

func ptr[T any](v T) *T { return &v }

func days(start time.Time, n int) daterange.DateRange {
	return daterange.DateRange{Start: start, End: start.AddDate(0, 0, n)}
}

var jan10 = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func TestCalculateBookingPrice_ShortTerm(t *testing.T) {
	rates := VehicleRates{Currency: "LKR", PricePerDay: 5000, DepositRequired: 10000}

	b, err := CalculateBookingPrice(rates, days(jan10, 3), RentalShortTerm, false)
	require.NoError(t, err)

	assert.Equal(t, 3, b.TotalDays)
	assert.Nil(t, b.TotalMonths)
	assert.Equal(t, int64(5000), b.DailyRate.Amount)
	assert.Equal(t, int64(0), b.MonthlyRate.Amount)
	assert.Equal(t, int64(15000), b.VehicleSubtotal.Amount)
	assert.Equal(t, int64(0), b.DriverSubtotal.Amount)
	assert.Equal(t, int64(15000), b.Subtotal.Amount)
	assert.Equal(t, int64(10000), b.Deposit.Amount)
	assert.Equal(t, int64(15000), b.Total.Amount, "deposit is excluded from total")
	assert.Equal(t, "LKR", b.Total.Currency)
}

func TestCalculateBookingPrice_LongTermMonthly(t *testing.T) {
	rates := VehicleRates{Currency: "LKR", MonthlyPrice: ptr(int64(100000))}

	b, err := CalculateBookingPrice(rates, days(jan10, 45), RentalLongTerm, false)
	require.NoError(t, err)

	assert.Equal(t, 45, b.TotalDays)
	require.NotNil(t, b.TotalMonths)
	assert.Equal(t, 2, *b.TotalMonths)
	assert.Equal(t, int64(0), b.DailyRate.Amount)
	assert.Equal(t, int64(100000), b.MonthlyRate.Amount)
	assert.Equal(t, int64(200000), b.VehicleSubtotal.Amount)
	assert.Equal(t, int64(200000), b.Total.Amount)
}

func TestCalculateBookingPrice_LongTermWithoutMonthlyPriceFallsBackToDaily(t *testing.T) {
	rates := VehicleRates{Currency: "LKR", PricePerDay: 4000}

	b, err := CalculateBookingPrice(rates, days(jan10, 31), RentalLongTerm, false)
	require.NoError(t, err)

	require.NotNil(t, b.TotalMonths)
	assert.Equal(t, 2, *b.TotalMonths)
	assert.Equal(t, int64(4000), b.DailyRate.Amount)
	assert.Equal(t, int64(124000), b.VehicleSubtotal.Amount)
}

func TestCalculateBookingPrice_WithDriver(t *testing.T) {
	rates := VehicleRates{
		Currency:            "LKR",
		PricePerDay:         5000,
		MonthlyPrice:        ptr(int64(100000)),
		DriverPricePerDay:   ptr(int64(2000)),
		DriverPricePerMonth: ptr(int64(40000)),
	}

	t.Run("daily", func(t *testing.T) {
		b, err := CalculateBookingPrice(rates, days(jan10, 4), RentalShortTerm, true)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), b.DriverDailyRate.Amount)
		assert.Equal(t, int64(0), b.DriverMonthlyRate.Amount)
		assert.Equal(t, int64(8000), b.DriverSubtotal.Amount)
		assert.Equal(t, int64(28000), b.Subtotal.Amount)
		assert.True(t, b.WithDriver)
	})

	t.Run("monthly", func(t *testing.T) {
		b, err := CalculateBookingPrice(rates, days(jan10, 60), RentalLongTerm, true)
		require.NoError(t, err)
		assert.Equal(t, int64(40000), b.DriverMonthlyRate.Amount)
		assert.Equal(t, int64(80000), b.DriverSubtotal.Amount)
		assert.Equal(t, int64(280000), b.Total.Amount)
	})

	t.Run("driver rate missing fails closed", func(t *testing.T) {
		_, err := CalculateBookingPrice(VehicleRates{Currency: "LKR", PricePerDay: 5000}, days(jan10, 2), RentalShortTerm, true)
		assert.ErrorIs(t, err, ErrMissingRate)
	})
}

func TestCalculateBookingPrice_IncludedKm(t *testing.T) {
	base := VehicleRates{
		Currency:           "LKR",
		PricePerDay:        5000,
		MonthlyPrice:       ptr(int64(100000)),
		PricePerKm:         ptr(int64(45)),
		IncludedKmPerDay:   ptr(100),
		IncludedKmPerMonth: ptr(2500),
	}

	b, err := CalculateBookingPrice(base, days(jan10, 3), RentalShortTerm, false)
	require.NoError(t, err)
	require.NotNil(t, b.IncludedKm)
	assert.Equal(t, 300, *b.IncludedKm)
	require.NotNil(t, b.ExtraKmRate)
	assert.Equal(t, int64(45), b.ExtraKmRate.Amount)

	b, err = CalculateBookingPrice(base, days(jan10, 45), RentalLongTerm, false)
	require.NoError(t, err)
	require.NotNil(t, b.IncludedKm)
	assert.Equal(t, 5000, *b.IncludedKm)

	unlimited := base
	unlimited.UnlimitedMileage = true
	b, err = CalculateBookingPrice(unlimited, days(jan10, 3), RentalShortTerm, false)
	require.NoError(t, err)
	assert.Nil(t, b.IncludedKm)
}

func TestCalculateBookingPrice_FailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		rates  VehicleRates
		rental RentalType
		want   error
	}{
		{"zero daily price", VehicleRates{Currency: "LKR"}, RentalShortTerm, ErrMissingRate},
		{"negative daily price", VehicleRates{Currency: "LKR", PricePerDay: -1}, RentalShortTerm, ErrMissingRate},
		{"zero monthly price", VehicleRates{Currency: "LKR", PricePerDay: 100, MonthlyPrice: ptr(int64(0))}, RentalLongTerm, ErrMissingRate},
		{"negative deposit", VehicleRates{Currency: "LKR", PricePerDay: 100, DepositRequired: -5}, RentalShortTerm, ErrMissingRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateBookingPrice(tt.rates, days(jan10, 40), tt.rental, false)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("empty range", func(t *testing.T) {
		_, err := CalculateBookingPrice(VehicleRates{Currency: "LKR", PricePerDay: 100}, days(jan10, 0), RentalShortTerm, false)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("missing currency", func(t *testing.T) {
		_, err := CalculateBookingPrice(VehicleRates{PricePerDay: 100}, days(jan10, 1), RentalShortTerm, false)
		assert.Error(t, err)
	})
}

func TestCalculateBookingPrice_MonotonicInDays(t *testing.T) {
	rates := VehicleRates{Currency: "LKR", PricePerDay: 3750}
	prev := int64(0)
	for n := 1; n <= 120; n++ {
		b, err := CalculateBookingPrice(rates, days(jan10, n), RentalShortTerm, false)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.Total.Amount, prev)
		prev = b.Total.Amount
	}
}

func TestCalculateBookingPrice_Idempotent(t *testing.T) {
	rates := VehicleRates{
		Currency:           "LKR",
		PricePerDay:        5000,
		MonthlyPrice:       ptr(int64(100000)),
		DriverPricePerDay:  ptr(int64(1500)),
		PricePerKm:         ptr(int64(30)),
		IncludedKmPerMonth: ptr(3000),
	}
	r := days(jan10, 47)

	first, err := CalculateBookingPrice(rates, r, RentalLongTerm, false)
	require.NoError(t, err)
	second, err := CalculateBookingPrice(rates, r, RentalLongTerm, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseRentalType(t *testing.T) {
	rt, err := ParseRentalType("long_term")
	require.NoError(t, err)
	assert.Equal(t, RentalLongTerm, rt)

	rt, err = ParseRentalType("")
	require.NoError(t, err)
	assert.Equal(t, RentalShortTerm, rt)

	_, err = ParseRentalType("weekly")
	assert.Error(t, err)
}
