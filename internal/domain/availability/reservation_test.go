package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func rng(from, to int) daterange.DateRange {
	return daterange.DateRange{Start: day(from), End: day(to)}
}

func TestHasConflict_BoundaryTouchDoesNotConflict(t *testing.T) {
	existing := []Reservation{{Reference: "b1", Range: rng(10, 15), Status: StatusConfirmed}}
	blocking := DefaultVehicleBlocking()

	assert.False(t, HasConflict(rng(15, 18), existing, blocking), "starts on existing end")
	assert.False(t, HasConflict(rng(5, 10), existing, blocking), "ends on existing start")
	assert.True(t, HasConflict(rng(14, 16), existing, blocking))
	assert.True(t, HasConflict(rng(11, 12), existing, blocking), "contained")
	assert.True(t, HasConflict(rng(1, 30), existing, blocking), "containing")
}

func TestHasConflict_OnlyBlockingStatuses(t *testing.T) {
	existing := []Reservation{
		{Reference: "p", Range: rng(10, 15), Status: StatusPending},
		{Reference: "c", Range: rng(10, 15), Status: StatusCancelled},
		{Reference: "r", Range: rng(10, 15), Status: StatusRejected},
		{Reference: "d", Range: rng(10, 15), Status: StatusCompleted},
	}

	assert.False(t, HasConflict(rng(12, 13), existing, DefaultVehicleBlocking()), "pending vehicle request does not hold the car")
	assert.True(t, HasConflict(rng(12, 13), existing, DefaultStayBlocking()), "pending stay request holds the room")
}

func TestConflicts_ReturnsOffenders(t *testing.T) {
	existing := []Reservation{
		{Reference: "a", Range: rng(1, 5), Status: StatusActive},
		{Reference: "b", Range: rng(5, 9), Status: StatusConfirmed},
		{Reference: "c", Range: rng(8, 12), Status: StatusCancelled},
	}

	got := Conflicts(rng(4, 10), existing, DefaultVehicleBlocking())
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Reference)
	assert.Equal(t, "b", got[1].Reference)

	assert.Empty(t, Conflicts(rng(12, 14), existing, DefaultVehicleBlocking()))
}

func TestCheck_WrapsSentinel(t *testing.T) {
	existing := []Reservation{{Reference: "bk-1", Range: rng(10, 15), Status: StatusActive}}

	err := Check(rng(12, 20), existing, DefaultVehicleBlocking())
	require.ErrorIs(t, err, ErrConflictDetected)
	assert.Contains(t, err.Error(), "bk-1")

	assert.NoError(t, Check(rng(15, 20), existing, DefaultVehicleBlocking()))
}

func TestParseStatusSet(t *testing.T) {
	set, err := ParseStatusSet(" confirmed, ACTIVE ,")
	require.NoError(t, err)
	assert.True(t, set.Contains(StatusConfirmed))
	assert.True(t, set.Contains(StatusActive))
	assert.False(t, set.Contains(StatusPending))
	assert.Equal(t, []string{"ACTIVE", "CONFIRMED"}, set.Strings())

	_, err = ParseStatusSet("CONFIRMED,HELD")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestPolicyFor(t *testing.T) {
	p := Policy{Vehicle: NewStatusSet(StatusActive)}

	set, err := p.For(pricing.VerticalVehicle)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusActive}, set.Statuses())

	set, err = p.For(pricing.VerticalStay)
	require.NoError(t, err)
	assert.True(t, set.Contains(StatusPending), "unset vertical falls back to defaults")

	_, err = p.For("BOAT")
	assert.ErrorIs(t, err, pricing.ErrUnknownVertical)
}
