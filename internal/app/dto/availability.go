package dto

import (
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
)

// BlockedRange omits the booking reference so guests never learn other bookings' ids.
type BlockedRange struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}

type Availability struct {
	ListingID string         `json:"listing_id"`
	Start     time.Time      `json:"start"`
	End       time.Time      `json:"end"`
	Available bool           `json:"available"`
	Blocked   []BlockedRange `json:"blocked"`
}

func MapAvailability(listingID string, start, end time.Time, conflicts []availability.Reservation) Availability {
	out := Availability{
		ListingID: listingID,
		Start:     start,
		End:       end,
		Available: len(conflicts) == 0,
		Blocked:   make([]BlockedRange, 0, len(conflicts)),
	}
	for _, c := range conflicts {
		out.Blocked = append(out.Blocked, BlockedRange{Start: c.Range.Start, End: c.Range.End, Status: string(c.Status)})
	}
	return out
}
