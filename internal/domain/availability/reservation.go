package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

var (
	ErrConflictDetected = errors.New("availability: requested range overlaps an existing reservation")
	ErrUnknownStatus    = errors.New("availability: unknown reservation status")
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

var allStatuses = []Status{StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled, StatusRejected}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range allStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Reservation is an existing booking as seen by the conflict checker.
type Reservation struct {
	Reference string
	Range     daterange.DateRange
	Status    Status
}

// StatusSet is the set of statuses that hold inventory.
type StatusSet map[Status]struct{}

func NewStatusSet(statuses ...Status) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// ParseStatusSet reads a comma separated list such as "CONFIRMED,ACTIVE".
func ParseStatusSet(raw string) (StatusSet, error) {
	set := StatusSet{}
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		set[s] = struct{}{}
	}
	return set, nil
}

func (s StatusSet) Contains(status Status) bool {
	_, ok := s[status]
	return ok
}

// Statuses returns the members in a stable order for queries and logs.
func (s StatusSet) Statuses() []Status {
	out := make([]Status, 0, len(s))
	for status := range s {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s StatusSet) Strings() []string {
	statuses := s.Statuses()
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

// Vehicles only block once the partner has accepted; stays also block while
// a request is pending.
func DefaultVehicleBlocking() StatusSet { return NewStatusSet(StatusConfirmed, StatusActive) }
func DefaultStayBlocking() StatusSet {
	return NewStatusSet(StatusPending, StatusConfirmed, StatusActive)
}

// Policy selects the blocking set of a vertical.
type Policy struct {
	Vehicle StatusSet
	Stay    StatusSet
}

func DefaultPolicy() Policy {
	return Policy{Vehicle: DefaultVehicleBlocking(), Stay: DefaultStayBlocking()}
}

func (p Policy) For(vertical pricing.Vertical) (StatusSet, error) {
	switch vertical {
	case pricing.VerticalVehicle:
		if p.Vehicle == nil {
			return DefaultVehicleBlocking(), nil
		}
		return p.Vehicle, nil
	case pricing.VerticalStay:
		if p.Stay == nil {
			return DefaultStayBlocking(), nil
		}
		return p.Stay, nil
	default:
		return nil, fmt.Errorf("%w: %q", pricing.ErrUnknownVertical, vertical)
	}
}

// Overlaps is the half-open test every store mirrors in its queries:
// a.Start < b.End && a.End > b.Start. Touching ranges do not overlap.
func Overlaps(a, b daterange.DateRange) bool {
	return a.Overlaps(b)
}

// HasConflict reports whether candidate overlaps any reservation whose status is blocking.
func HasConflict(candidate daterange.DateRange, existing []Reservation, blocking StatusSet) bool {
	for _, r := range existing {
		if blocking.Contains(r.Status) && Overlaps(candidate, r.Range) {
			return true
		}
	}
	return false
}

// Conflicts returns the blocking reservations that overlap candidate.
func Conflicts(candidate daterange.DateRange, existing []Reservation, blocking StatusSet) []Reservation {
	var out []Reservation
	for _, r := range existing {
		if blocking.Contains(r.Status) && Overlaps(candidate, r.Range) {
			out = append(out, r)
		}
	}
	return out
}

// Check returns ErrConflictDetected naming the first offending reservation.
func Check(candidate daterange.DateRange, existing []Reservation, blocking StatusSet) error {
	conflicts := Conflicts(candidate, existing, blocking)
	if len(conflicts) == 0 {
		return nil
	}
	first := conflicts[0]
	return fmt.Errorf("%w: %s [%s, %s) is %s", ErrConflictDetected, first.Reference,
		first.Range.Start.Format("2006-01-02"), first.Range.End.Format("2006-01-02"), first.Status)
}
