package queries

import (
	"context"
	"errors"
	"fmt"
)

// Query is a read. Handlers open read-only units only, so a query never
// records events or touches the outbox.
type Query interface {
	Key() string
}

// Targeted queries read one listing or booking. Target returns
// "listing:<id>" or "booking:<id>" and is used to tag logs.
type Targeted interface {
	Query
	Target() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// HandlerFunc lets one struct serve several queries through method values.
type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Ask runs query through bus and narrows the result to R.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, query.Key(), res, zero)
	}
	return value, nil
}

// Describe returns log attributes naming query and, when known, its target.
func Describe(query Query) []any {
	attrs := []any{"query", query.Key()}
	if t, ok := query.(Targeted); ok && t.Target() != "" {
		attrs = append(attrs, "target", t.Target())
	}
	return attrs
}
