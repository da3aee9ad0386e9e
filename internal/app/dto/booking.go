package dto

import (
	"time"

	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
)

type Booking struct {
	ID                 string        `json:"id"`
	ListingID          string        `json:"listing_id"`
	GuestID            string        `json:"guest_id"`
	Vertical           string        `json:"vertical"`
	Start              time.Time     `json:"start"`
	End                time.Time     `json:"end"`
	RentalType         string        `json:"rental_type,omitempty"`
	WithDriver         bool          `json:"with_driver"`
	Guests             int           `json:"guests"`
	Status             string        `json:"status"`
	AllowedTransitions []string      `json:"allowed_transitions"`
	Price              PriceSnapshot `json:"price"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Version            int64         `json:"version"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	next := domainbooking.AllowedTransitions(b.Status)
	allowed := make([]string, len(next))
	for i, s := range next {
		allowed[i] = string(s)
	}
	return Booking{
		ID:                 string(b.ID),
		ListingID:          string(b.ListingID),
		GuestID:            b.GuestID,
		Vertical:           string(b.Vertical),
		Start:              b.Range.Start,
		End:                b.Range.End,
		RentalType:         string(b.RentalType),
		WithDriver:         b.WithDriver,
		Guests:             b.Guests,
		Status:             string(b.Status),
		AllowedTransitions: allowed,
		Price:              MapSnapshot(b.Price),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
}
