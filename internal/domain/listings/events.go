package listings

import (
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
)

type ListingCreatedEvent struct {
	ListingID ListingID
	HostID    HostID
	Vertical  pricing.Vertical
	At        time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingActivatedEvent struct {
	ListingID ListingID
	HostID    HostID
	At        time.Time
}

func (e ListingActivatedEvent) EventName() string     { return "listing.activated" }
func (e ListingActivatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingActivatedEvent) OccurredAt() time.Time { return e.At }

type ListingSuspendedEvent struct {
	ListingID ListingID
	Reason    string
	At        time.Time
}

func (e ListingSuspendedEvent) EventName() string     { return "listing.suspended" }
func (e ListingSuspendedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingSuspendedEvent) OccurredAt() time.Time { return e.At }

type ListingRatesUpdatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingRatesUpdatedEvent) EventName() string     { return "listing.rates_updated" }
func (e ListingRatesUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingRatesUpdatedEvent) OccurredAt() time.Time { return e.At }
