package middleware

import (
	"context"
	"fmt"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
)

// Authorizer decides once per message whether the caller in ctx may run it.
type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

type keyed interface{ Key() string }

func authorize(ctx context.Context, a Authorizer, message keyed) error {
	if err := a.Authorize(ctx, message); err != nil {
		return fmt.Errorf("%s: %w", message.Key(), err)
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := authorize(ctx, a, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := authorize(ctx, a, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
