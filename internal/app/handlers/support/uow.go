package support

import (
	"context"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
)

// Unit returns the unit of work already in ctx or begins one on factory.
// When a unit is begun here, finish must be called with the handler's error:
// it commits on success and rolls back otherwise. finish is a no-op for
// units owned by the transaction middleware.
func Unit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(err error) error, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func(err error) error { return err }, nil
	}
	unit, execCtx, err := uow.Begin(ctx, factory, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	finish := func(err error) error {
		if err != nil || opts.ReadOnly {
			_ = unit.Rollback(execCtx)
			return err
		}
		return unit.Commit(execCtx)
	}
	return unit, execCtx, finish, nil
}
