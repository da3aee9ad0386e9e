package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateStaysBookingPrice_WeeklyWins(t *testing.T) {
	rates := StayRates{Currency: "LKR", PricePerNight: 3000, PricePerWeek: ptr(int64(18000))}

	b, err := CalculateStaysBookingPrice(rates, days(jan10, 10))
	require.NoError(t, err)

	// nightly 30000, weekly 1*18000 + 3*3000 = 27000
	assert.Equal(t, 10, b.TotalNights)
	assert.Equal(t, TierWeekly, b.Tier)
	assert.Equal(t, int64(27000), b.NightsSubtotal.Amount)
	assert.Equal(t, int64(3000), b.WeeklyDiscount.Amount)
	assert.Equal(t, int64(0), b.MonthlyDiscount.Amount)
	assert.Equal(t, int64(27000), b.Total.Amount)
}

func TestCalculateStaysBookingPrice_Tiers(t *testing.T) {
	rates := StayRates{
		Currency:        "LKR",
		PricePerNight:   3000,
		PricePerWeek:    ptr(int64(18000)),
		PricePerMonth:   ptr(int64(60000)),
		CleaningFee:     ptr(int64(2500)),
		DepositRequired: 20000,
	}

	t.Run("short stay stays nightly", func(t *testing.T) {
		b, err := CalculateStaysBookingPrice(rates, days(jan10, 6))
		require.NoError(t, err)
		assert.Equal(t, TierNightly, b.Tier)
		assert.Equal(t, int64(18000), b.NightsSubtotal.Amount)
		assert.Equal(t, int64(20500), b.Subtotal.Amount)
		assert.Equal(t, int64(20500), b.Total.Amount)
		assert.Equal(t, int64(20000), b.Deposit.Amount)
	})

	t.Run("monthly wins for long stay", func(t *testing.T) {
		// nightly 105000, weekly 5*18000 = 90000, monthly 60000 + 5*3000 = 75000
		b, err := CalculateStaysBookingPrice(rates, days(jan10, 35))
		require.NoError(t, err)
		assert.Equal(t, TierMonthly, b.Tier)
		assert.Equal(t, int64(75000), b.NightsSubtotal.Amount)
		assert.Equal(t, int64(30000), b.MonthlyDiscount.Amount)
		assert.Equal(t, int64(0), b.WeeklyDiscount.Amount)
		assert.Equal(t, int64(77500), b.Total.Amount)
	})

	t.Run("expensive weekly rate is ignored", func(t *testing.T) {
		pricey := rates
		pricey.PricePerWeek = ptr(int64(25000))
		b, err := CalculateStaysBookingPrice(pricey, days(jan10, 7))
		require.NoError(t, err)
		assert.Equal(t, TierNightly, b.Tier)
		assert.Equal(t, int64(21000), b.NightsSubtotal.Amount)
		assert.Equal(t, int64(0), b.WeeklyDiscount.Amount)
	})
}

func TestCalculateStaysBookingPrice_TieBreaks(t *testing.T) {
	t.Run("nightly wins tie against weekly", func(t *testing.T) {
		rates := StayRates{Currency: "LKR", PricePerNight: 3000, PricePerWeek: ptr(int64(21000))}
		b, err := CalculateStaysBookingPrice(rates, days(jan10, 7))
		require.NoError(t, err)
		assert.Equal(t, TierNightly, b.Tier)
		assert.Equal(t, int64(0), b.WeeklyDiscount.Amount)
	})

	t.Run("weekly wins tie against monthly", func(t *testing.T) {
		// 30 nights: weekly 4*14000 + 2*3000 = 62000, monthly 62000, nightly 90000
		rates := StayRates{
			Currency:      "LKR",
			PricePerNight: 3000,
			PricePerWeek:  ptr(int64(14000)),
			PricePerMonth: ptr(int64(62000)),
		}
		b, err := CalculateStaysBookingPrice(rates, days(jan10, 30))
		require.NoError(t, err)
		assert.Equal(t, TierWeekly, b.Tier)
		assert.Equal(t, int64(62000), b.NightsSubtotal.Amount)
		assert.Equal(t, int64(28000), b.WeeklyDiscount.Amount)
		assert.Equal(t, int64(0), b.MonthlyDiscount.Amount)
	})
}

func TestCalculateStaysBookingPrice_NeverWorseThanNightly(t *testing.T) {
	rates := StayRates{
		Currency:      "LKR",
		PricePerNight: 2900,
		PricePerWeek:  ptr(int64(22000)),
		PricePerMonth: ptr(int64(95000)),
	}
	for n := 1; n <= 100; n++ {
		b, err := CalculateStaysBookingPrice(rates, days(jan10, n))
		require.NoError(t, err)
		base := rates.PricePerNight * int64(n)
		assert.LessOrEqual(t, b.NightsSubtotal.Amount, base, "nights=%d", n)
		assert.GreaterOrEqual(t, b.WeeklyDiscount.Amount, int64(0))
		assert.GreaterOrEqual(t, b.MonthlyDiscount.Amount, int64(0))
	}
}

func TestCalculateStaysBookingPrice_FailsClosed(t *testing.T) {
	_, err := CalculateStaysBookingPrice(StayRates{Currency: "LKR"}, days(jan10, 2))
	assert.ErrorIs(t, err, ErrMissingRate)

	_, err = CalculateStaysBookingPrice(StayRates{Currency: "LKR", PricePerNight: 100, CleaningFee: ptr(int64(-1))}, days(jan10, 2))
	assert.ErrorIs(t, err, ErrMissingRate)

	_, err = CalculateStaysBookingPrice(StayRates{Currency: "LKR", PricePerNight: 100}, days(jan10, -2))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestCalculateStaysBookingPrice_Idempotent(t *testing.T) {
	rates := StayRates{Currency: "LKR", PricePerNight: 3000, PricePerWeek: ptr(int64(18000)), CleaningFee: ptr(int64(1000))}
	first, err := CalculateStaysBookingPrice(rates, days(jan10, 12))
	require.NoError(t, err)
	second, err := CalculateStaysBookingPrice(rates, days(jan10, 12))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
