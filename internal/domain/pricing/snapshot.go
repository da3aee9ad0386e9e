package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/money"
)

// Vertical is the marketplace line a listing belongs to.
type Vertical string

const (
	VerticalVehicle Vertical = "VEHICLE"
	VerticalStay    Vertical = "STAY"
)

func ParseVertical(raw string) (Vertical, error) {
	switch v := Vertical(strings.ToUpper(strings.TrimSpace(raw))); v {
	case VerticalVehicle, VerticalStay:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVertical, raw)
	}
}

var ErrSnapshotInvalid = errors.New("pricing: snapshot must hold exactly the breakdown of its vertical")

// Snapshot is the price breakdown persisted with a booking. It is computed
// once at booking time so later rate changes never alter history.
type Snapshot struct {
	Vertical Vertical          `json:"vertical" bson:"vertical"`
	Vehicle  *VehicleBreakdown `json:"vehicle,omitempty" bson:"vehicle,omitempty"`
	Stay     *StayBreakdown    `json:"stay,omitempty" bson:"stay,omitempty"`
}

func VehicleSnapshot(b VehicleBreakdown) Snapshot {
	return Snapshot{Vertical: VerticalVehicle, Vehicle: &b}
}

func StaySnapshot(b StayBreakdown) Snapshot {
	return Snapshot{Vertical: VerticalStay, Stay: &b}
}

func (s Snapshot) Validate() error {
	switch s.Vertical {
	case VerticalVehicle:
		if s.Vehicle == nil || s.Stay != nil {
			return ErrSnapshotInvalid
		}
	case VerticalStay:
		if s.Stay == nil || s.Vehicle != nil {
			return ErrSnapshotInvalid
		}
	default:
		return ErrUnknownVertical
	}
	return nil
}

func (s Snapshot) Total() money.Money {
	switch {
	case s.Vehicle != nil:
		return s.Vehicle.Total
	case s.Stay != nil:
		return s.Stay.Total
	}
	return money.Money{}
}

func (s Snapshot) Deposit() money.Money {
	switch {
	case s.Vehicle != nil:
		return s.Vehicle.Deposit
	case s.Stay != nil:
		return s.Stay.Deposit
	}
	return money.Money{}
}

// Units is the billed day or night count.
func (s Snapshot) Units() int {
	switch {
	case s.Vehicle != nil:
		return s.Vehicle.TotalDays
	case s.Stay != nil:
		return s.Stay.TotalNights
	}
	return 0
}

// Copy returns a snapshot sharing no pointers with the receiver.
func (s Snapshot) Copy() Snapshot {
	clone := Snapshot{Vertical: s.Vertical}
	if s.Vehicle != nil {
		v := *s.Vehicle
		v.TotalMonths = copyInt(s.Vehicle.TotalMonths)
		v.IncludedKm = copyInt(s.Vehicle.IncludedKm)
		if s.Vehicle.ExtraKmRate != nil {
			rate := *s.Vehicle.ExtraKmRate
			v.ExtraKmRate = &rate
		}
		clone.Vehicle = &v
	}
	if s.Stay != nil {
		st := *s.Stay
		clone.Stay = &st
	}
	return clone
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
