package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
)

// Logging records each command with its duration and outcome.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := append(commands.Describe(cmd), "duration", time.Since(start))
			if err != nil {
				logger.WarnContext(ctx, "command failed", append(attrs, "error", err)...)
				return nil, err
			}
			logger.InfoContext(ctx, "command handled", attrs...)
			return res, nil
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			if err != nil {
				attrs := append(queries.Describe(q), "duration", time.Since(start), "error", err)
				logger.DebugContext(ctx, "query failed", attrs...)
				return nil, err
			}
			return res, nil
		})
	}
}
