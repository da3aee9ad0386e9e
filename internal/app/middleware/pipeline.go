package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
)

// CommandMiddleware wraps a command bus with additional behavior (logging, tx, etc.).
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware wraps a query bus with extra behavior.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base with mws, outermost first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// CommandStack assembles the command middleware in its required order:
// logging, validation, authorization, idempotency, relay flush, resource
// lock, transaction. Nil dependencies skip their middleware.
type CommandStack struct {
	Logger      *slog.Logger
	Validator   Validator
	Authorizer  Authorizer
	Idempotency IdempotencyStore
	Relay       outbox.Relay
	Locker      policies.ResourceLocker
	LockTTL     time.Duration
	LockWait    time.Duration
	UoW         uow.UoWFactory
}

func (s CommandStack) Build(base commands.Bus) commands.Bus {
	mws := []CommandMiddleware{Logging(s.Logger)}
	if s.Validator != nil {
		mws = append(mws, Validation(s.Validator))
	}
	if s.Authorizer != nil {
		mws = append(mws, Authorization(s.Authorizer))
	}
	if s.Idempotency != nil {
		mws = append(mws, Idempotency(s.Idempotency, nil))
	}
	if s.Relay != nil {
		mws = append(mws, OutboxFlush(s.Relay))
	}
	if s.Locker != nil {
		ttl, wait := s.LockTTL, s.LockWait
		if ttl <= 0 {
			ttl = 10 * time.Second
		}
		if wait <= 0 {
			wait = 2 * time.Second
		}
		mws = append(mws, ResourceLock(s.Locker, ttl, wait, s.Logger))
	}
	if s.UoW != nil {
		mws = append(mws, Transaction(s.UoW, nil))
	}
	return ChainCommands(base, mws...)
}

type QueryStack struct {
	Logger     *slog.Logger
	Validator  Validator
	Authorizer Authorizer
}

func (s QueryStack) Build(base queries.Bus) queries.Bus {
	mws := []QueryMiddleware{QueryLogging(s.Logger)}
	if s.Validator != nil {
		mws = append(mws, QueryValidation(s.Validator))
	}
	if s.Authorizer != nil {
		mws = append(mws, QueryAuthorization(s.Authorizer))
	}
	return ChainQueries(base, mws...)
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return func(ctx context.Context, q queries.Query) (any, error) {
		return next.Ask(ctx, q)
	}
}
