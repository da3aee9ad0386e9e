package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingQuery struct{ ID string }

func (listingQuery) Key() string      { return "test.listing" }
func (q listingQuery) Target() string { return "listing:" + q.ID }

func TestInMemoryBus_Ask(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[listingQuery, string](bus, listingQuery{}.Key(), HandlerFunc[listingQuery, string](
		func(_ context.Context, q listingQuery) (string, error) { return q.ID, nil }))

	got, err := Ask[listingQuery, string](context.Background(), bus, listingQuery{ID: "villa-1"})
	require.NoError(t, err)
	assert.Equal(t, "villa-1", got)
	assert.Equal(t, []string{"test.listing"}, bus.Keys())

	_, err = Ask[listingQuery, int](context.Background(), bus, listingQuery{ID: "villa-1"})
	assert.ErrorIs(t, err, ErrResultType)
	assert.Contains(t, err.Error(), "test.listing")

	_, err = Ask[listingQuery, string](context.Background(), nil, listingQuery{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, []any{"query", "test.listing", "target", "listing:villa-1"}, Describe(listingQuery{ID: "villa-1"}))
}
