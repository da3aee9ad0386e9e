package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Msg string }

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

type reserveCommand struct{ Idem, Lock string }

func (reserveCommand) Key() string              { return "test.reserve" }
func (c reserveCommand) IdempotencyKey() string { return c.Idem }
func (reserveCommand) ResultPrototype() any     { return new(string) }
func (c reserveCommand) LockKey() string        { return c.Lock }

type pongHandler struct{}

func (pongHandler) Handle(_ context.Context, cmd pingCommand) (string, error) {
	return "pong:" + cmd.Msg, nil
}

func TestInMemoryBus_Dispatch(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), pongHandler{})

	got, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{Msg: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "pong:hi", got)
	assert.Equal(t, []string{"test.ping"}, bus.Keys())

	_, err = bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)
	assert.Contains(t, err.Error(), "test.ping returned string, want int")

	_, err = Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestInMemoryBus_DuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, "test.ping", pongHandler{})

	assert.Panics(t, func() { RegisterHandler[pingCommand, string](bus, "test.ping", pongHandler{}) })
	assert.Panics(t, func() { bus.RegisterRaw("", nil) })
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, []any{"command", "test.ping"}, Describe(pingCommand{}))
	assert.Equal(t, []any{"command", "test.reserve"}, Describe(reserveCommand{}), "empty keys opt out")
	assert.Equal(t,
		[]any{"command", "test.reserve", "idempotent", true, "lock", "listing:1"},
		Describe(reserveCommand{Idem: "k", Lock: "listing:1"}))
}
