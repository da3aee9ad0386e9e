package access

import (
	"context"
	"fmt"
)

// RoleAuthorizer checks Guarded messages against the static role grants.
// Messages that are not Guarded pass through.
type RoleAuthorizer struct {
	// Public capabilities are granted to anonymous callers.
	Public []Capability
}

func (a RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	guarded, ok := message.(Guarded)
	if !ok {
		return nil
	}
	capability := guarded.Capability()
	if capability == "" {
		return nil
	}
	principal, ok := PrincipalFrom(ctx)
	if !ok {
		for _, c := range a.Public {
			if c == capability {
				return nil
			}
		}
		return ErrUnauthenticated
	}
	if !principal.Role.Can(capability) {
		return fmt.Errorf("%w: %s needs %s", ErrForbidden, principal.Role, capability)
	}
	return nil
}
