package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/support"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

// listingFixture carries amounts as decimal strings in major units, e.g. "8500.00".
type listingFixture struct {
	ID        string          `json:"id"`
	Host      string          `json:"host"`
	Title     string          `json:"title"`
	Vertical  string          `json:"vertical"`
	Currency  string          `json:"currency"`
	MinNights int             `json:"min_nights"`
	MaxNights int             `json:"max_nights"`
	Vehicle   *vehicleFixture `json:"vehicle"`
	Stay      *stayFixture    `json:"stay"`
}

type vehicleFixture struct {
	PricePerDay         string  `json:"price_per_day"`
	PricePerKm          *string `json:"price_per_km"`
	MonthlyPrice        *string `json:"monthly_price"`
	DepositRequired     string  `json:"deposit_required"`
	DriverPricePerDay   *string `json:"driver_price_per_day"`
	DriverPricePerKm    *string `json:"driver_price_per_km"`
	DriverPricePerMonth *string `json:"driver_price_per_month"`
	IncludedKmPerDay    *int    `json:"included_km_per_day"`
	IncludedKmPerMonth  *int    `json:"included_km_per_month"`
	UnlimitedMileage    bool    `json:"unlimited_mileage"`
}

type stayFixture struct {
	PricePerNight   string  `json:"price_per_night"`
	PricePerWeek    *string `json:"price_per_week"`
	PricePerMonth   *string `json:"price_per_month"`
	CleaningFee     *string `json:"cleaning_fee"`
	DepositRequired string  `json:"deposit_required"`
}

// loadListingFixtures imports listings that are not stored yet. Existing
// listings are left untouched so restarts do not reset rates.
func loadListingFixtures(ctx context.Context, factory uow.UoWFactory, defaultCurrency, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		params, err := fx.params(defaultCurrency, now)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		imported, err := importListing(ctx, factory, params)
		if err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		if imported {
			logger.Info("listing fixture imported", "listing_id", fx.ID)
		}
	}
	return nil
}

func importListing(ctx context.Context, factory uow.UoWFactory, params listings.CreateListingParams) (imported bool, err error) {
	unit, ctx, finish, err := support.Unit(ctx, factory, uow.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { err = finish(err) }()

	_, err = unit.Listings().ByID(ctx, params.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, listings.ErrListingNotFound) {
		return false, err
	}

	listing, err := listings.NewListing(params)
	if err != nil {
		return false, err
	}
	if err := listing.Activate(params.Now); err != nil {
		return false, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return false, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), nil, listing.DrainEvents()); err != nil {
		return false, err
	}
	return true, nil
}

func (fx listingFixture) params(defaultCurrency string, now time.Time) (listings.CreateListingParams, error) {
	vertical, err := pricing.ParseVertical(fx.Vertical)
	if err != nil {
		return listings.CreateListingParams{}, err
	}
	currency := fx.Currency
	if strings.TrimSpace(currency) == "" {
		currency = defaultCurrency
	}
	if currency, err = money.NormalizeCurrency(currency); err != nil {
		return listings.CreateListingParams{}, err
	}

	params := listings.CreateListingParams{
		ID:        listings.ListingID(fx.ID),
		Host:      listings.HostID(fx.Host),
		Title:     fx.Title,
		Vertical:  vertical,
		MinNights: fx.MinNights,
		MaxNights: fx.MaxNights,
		Now:       now,
	}
	if fx.Vehicle != nil {
		if params.Vehicle, err = fx.Vehicle.rates(currency); err != nil {
			return listings.CreateListingParams{}, fmt.Errorf("vehicle rates: %w", err)
		}
	}
	if fx.Stay != nil {
		if params.Stay, err = fx.Stay.rates(currency); err != nil {
			return listings.CreateListingParams{}, fmt.Errorf("stay rates: %w", err)
		}
	}
	return params, nil
}

func (v vehicleFixture) rates(currency string) (*pricing.VehicleRates, error) {
	var (
		r   = pricing.VehicleRates{Currency: currency, IncludedKmPerDay: v.IncludedKmPerDay, IncludedKmPerMonth: v.IncludedKmPerMonth, UnlimitedMileage: v.UnlimitedMileage}
		err error
	)
	if r.PricePerDay, err = money.ParseMinor(v.PricePerDay); err != nil {
		return nil, err
	}
	if r.DepositRequired, err = minorOrZero(v.DepositRequired); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		src *string
		dst **int64
	}{
		{v.PricePerKm, &r.PricePerKm},
		{v.MonthlyPrice, &r.MonthlyPrice},
		{v.DriverPricePerDay, &r.DriverPricePerDay},
		{v.DriverPricePerKm, &r.DriverPricePerKm},
		{v.DriverPricePerMonth, &r.DriverPricePerMonth},
	} {
		if *f.dst, err = optionalMinor(f.src); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func (s stayFixture) rates(currency string) (*pricing.StayRates, error) {
	var (
		r   = pricing.StayRates{Currency: currency}
		err error
	)
	if r.PricePerNight, err = money.ParseMinor(s.PricePerNight); err != nil {
		return nil, err
	}
	if r.DepositRequired, err = minorOrZero(s.DepositRequired); err != nil {
		return nil, err
	}
	if r.PricePerWeek, err = optionalMinor(s.PricePerWeek); err != nil {
		return nil, err
	}
	if r.PricePerMonth, err = optionalMinor(s.PricePerMonth); err != nil {
		return nil, err
	}
	if r.CleaningFee, err = optionalMinor(s.CleaningFee); err != nil {
		return nil, err
	}
	return &r, nil
}

func optionalMinor(raw *string) (*int64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := money.ParseMinor(*raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func minorOrZero(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return money.ParseMinor(raw)
}

func defaultListingFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
