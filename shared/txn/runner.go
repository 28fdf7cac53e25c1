package txn

import (
	"context"
	"errors"
	"log/slog"

	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/metricsx"
)

// Options tunes failure handling of a transactional call. The zero
// value matches the default policy: errors are returned to the caller
// and logged.
type Options struct {
	// Swallow converts a failure into a zero result with a nil error.
	// Reserved for best-effort reads where failure should degrade to
	// absence rather than propagate.
	Swallow bool
	// Silent suppresses error logging.
	Silent bool
}

// Runner opens a fresh, isolated unit of work per call. The database
// source is consulted on every call so a configuration change is
// picked up by the next transaction.
type Runner struct {
	source func(ctx context.Context) (Beginner, error)
	bus    eventbus.Publisher
	logger logx.Logger
}

func NewRunner(source func(ctx context.Context) (Beginner, error), bus eventbus.Publisher, logger logx.Logger) *Runner {
	return &Runner{source: source, bus: bus, logger: logger}
}

var errAbandoned = errors.New("transaction scope abandoned")

// Execute runs fn inside a new unit of work: commit on clean return,
// rollback on error, session released on every exit path. Events
// recorded on the unit of work are flushed to the bus only after a
// successful commit.
func Execute[T any](ctx context.Context, r *Runner, op string, opts Options, fn func(context.Context, *UnitOfWork) (T, error)) (T, error) {
	var zero T

	db, err := r.source(ctx)
	if err != nil {
		return zero, r.fail(ctx, op, opts, err)
	}
	uow := New(db)
	if err := uow.Open(ctx); err != nil {
		return zero, r.fail(ctx, op, opts, err)
	}

	// A panic in fn must still release the session before unwinding.
	defer func() {
		if uow.State() == StateOpen {
			metricsx.IncTxnRollback()
			if rbErr := uow.finish(ctx, errAbandoned); rbErr != nil {
				r.logRollbackFailure(ctx, op, rbErr)
			}
		}
	}()

	result, err := fn(ctx, uow)
	if err != nil {
		metricsx.IncTxnRollback()
		if rbErr := uow.finish(ctx, err); rbErr != nil {
			r.logRollbackFailure(ctx, op, rbErr)
		}
		return zero, r.fail(ctx, op, opts, err)
	}

	if err := uow.finish(ctx, nil); err != nil {
		metricsx.IncTxnRollback()
		return zero, r.fail(ctx, op, opts, err)
	}
	metricsx.IncTxnCommit()

	for _, event := range uow.drainEvents() {
		r.bus.Broadcast(ctx, event)
	}
	return result, nil
}

// Wrap returns a closure with Execute semantics baked in, for call
// sites that invoke the same operation repeatedly.
func Wrap[T any](r *Runner, op string, opts Options, fn func(context.Context, *UnitOfWork) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Execute(ctx, r, op, opts, fn)
	}
}

func (r *Runner) fail(ctx context.Context, op string, opts Options, err error) error {
	if !opts.Silent {
		r.logger.Error(ctx, "txn_failed", "transactional operation failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
	if opts.Swallow {
		return nil
	}
	return err
}

func (r *Runner) logRollbackFailure(ctx context.Context, op string, err error) {
	r.logger.Error(ctx, "txn_rollback_failed", "rollback failed, session released anyway",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// Service offers the runner's semantics as methods, for services that
// prefer composition over wrapping individual functions.
type Service struct {
	runner *Runner
}

func NewService(runner *Runner) Service {
	return Service{runner: runner}
}

func (s Service) Runner() *Runner { return s.runner }

// Do executes fn in its own transaction with default options.
func (s Service) Do(ctx context.Context, op string, fn func(context.Context, *UnitOfWork) error) error {
	_, err := Execute(ctx, s.runner, op, Options{}, func(ctx context.Context, uow *UnitOfWork) (struct{}, error) {
		return struct{}{}, fn(ctx, uow)
	})
	return err
}
