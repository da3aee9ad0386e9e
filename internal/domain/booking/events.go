package booking

import (
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID           `json:"booking_id"`
	ListingID listings.ListingID  `json:"listing_id"`
	GuestID   string              `json:"guest_id"`
	Vertical  pricing.Vertical    `json:"vertical"`
	Range     daterange.DateRange `json:"range"`
	Guests    int                 `json:"guests"`
	Total     money.Money         `json:"total"`
	At        time.Time           `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	From      Status             `json:"from"`
	To        Status             `json:"to"`
	Reason    string             `json:"reason,omitempty"`
	At        time.Time          `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return "booking.status_changed" }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }
