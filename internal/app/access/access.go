package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("access: caller is not identified")
	ErrForbidden       = errors.New("access: capability not granted")
	ErrUnknownRole     = errors.New("access: unknown role")
)

type Role string

const (
	RoleGuest   Role = "guest"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleGuest, RolePartner, RoleAdmin:
		return r, nil
	case "":
		return RoleGuest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

type Capability string

const (
	QuoteRead        Capability = "quote:read"
	AvailabilityRead Capability = "availability:read"
	BookingCreate    Capability = "booking:create"
	BookingRead      Capability = "booking:read"
	BookingCancel    Capability = "booking:cancel"
	BookingManage    Capability = "booking:manage"
)

// Principal is the caller identity forwarded by the gateway.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsZero() bool { return p.UserID == "" }

// Owns reports whether the principal may act on a resource owned by ownerID.
// Admins own everything.
func (p Principal) Owns(ownerID string) bool {
	return p.Role == RoleAdmin || (ownerID != "" && p.UserID == ownerID)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// Guarded is implemented by commands and queries that need a capability.
type Guarded interface {
	Capability() Capability
}

var grants = map[Role][]Capability{
	RoleGuest:   {QuoteRead, AvailabilityRead, BookingCreate, BookingRead, BookingCancel},
	RolePartner: {QuoteRead, AvailabilityRead, BookingRead, BookingCancel, BookingManage},
	RoleAdmin:   {QuoteRead, AvailabilityRead, BookingCreate, BookingRead, BookingCancel, BookingManage},
}

func (r Role) Can(c Capability) bool {
	for _, granted := range grants[r] {
		if granted == c {
			return true
		}
	}
	return false
}
