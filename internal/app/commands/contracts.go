package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is a booking-side write. Key names the handler and also prefixes
// idempotency records, so it must not change between releases.
type Command interface {
	Key() string
}

// Idempotent commands replay their first successful result when the same
// caller repeats IdempotencyKey. An empty key opts out for that request.
type Idempotent interface {
	Command
	IdempotencyKey() string
	// ResultPrototype returns a fresh pointer the stored result decodes into.
	ResultPrototype() any
}

// Locked commands run while holding LockKey exclusively, until after the
// unit of work has committed. An empty key takes no lock.
type Locked interface {
	Command
	LockKey() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Bus is the command side as seen by transports. The registry hands out a
// Bus already wrapped in the middleware stack.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Dispatch sends cmd and narrows the result to R. A replayed idempotent
// result is nil when the original handler returned nothing.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, cmd.Key(), res, zero)
	}
	return value, nil
}

// Describe lists the pipeline hooks cmd opts into as log attributes.
func Describe(cmd Command) []any {
	attrs := []any{"command", cmd.Key()}
	if c, ok := cmd.(Idempotent); ok && c.IdempotencyKey() != "" {
		attrs = append(attrs, "idempotent", true)
	}
	if c, ok := cmd.(Locked); ok && c.LockKey() != "" {
		attrs = append(attrs, "lock", c.LockKey())
	}
	return attrs
}
