package middleware

import (
	"context"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
)

// OutboxFlush nudges the relay once a command has committed. It belongs
// outside Transaction so the relay never sees uncommitted records.
func OutboxFlush(relay outbox.Relay) CommandMiddleware {
	if relay == nil {
		panic("middleware: outbox relay required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := relay.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
