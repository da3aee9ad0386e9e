package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardedMsg struct{ c Capability }

func (g guardedMsg) Capability() Capability { return g.c }

func TestRoleAuthorizer(t *testing.T) {
	a := RoleAuthorizer{Public: []Capability{QuoteRead}}
	guest := WithPrincipal(context.Background(), Principal{UserID: "u1", Role: RoleGuest})
	partner := WithPrincipal(context.Background(), Principal{UserID: "p1", Role: RolePartner})
	admin := WithPrincipal(context.Background(), Principal{UserID: "a1", Role: RoleAdmin})
	anon := context.Background()

	tests := []struct {
		name string
		ctx  context.Context
		msg  any
		want error
	}{
		{"unguarded passes", anon, struct{}{}, nil},
		{"public quote", anon, guardedMsg{QuoteRead}, nil},
		{"anonymous booking", anon, guardedMsg{BookingCreate}, ErrUnauthenticated},
		{"guest books", guest, guardedMsg{BookingCreate}, nil},
		{"guest cannot manage", guest, guardedMsg{BookingManage}, ErrForbidden},
		{"partner manages", partner, guardedMsg{BookingManage}, nil},
		{"partner cannot book", partner, guardedMsg{BookingCreate}, ErrForbidden},
		{"admin does all", admin, guardedMsg{BookingManage}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authorize(tt.ctx, tt.msg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Partner ")
	require.NoError(t, err)
	assert.Equal(t, RolePartner, r)

	r, err = ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleGuest, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestPrincipalOwns(t *testing.T) {
	assert.True(t, Principal{UserID: "u1", Role: RoleGuest}.Owns("u1"))
	assert.False(t, Principal{UserID: "u1", Role: RoleGuest}.Owns("u2"))
	assert.False(t, Principal{UserID: "u1", Role: RolePartner}.Owns(""))
	assert.True(t, Principal{UserID: "a", Role: RoleAdmin}.Owns("anyone"))

	_, ok := PrincipalFrom(WithPrincipal(context.Background(), Principal{}))
	assert.False(t, ok, "empty principal is anonymous")
}
