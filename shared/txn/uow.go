// Package txn owns the transactional orchestration core: the unit of
// work, the transactional runner that injects a fresh unit of work
// into every service call, and the bulk coordinator that batches
// operations into a single transaction.
package txn

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"conduit-blog-platform/shared/eventbus"
)

const (
	StateClosed       = "closed"
	StateOpen         = "open"
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

var (
	ErrAlreadyOpen = errors.New("unit of work is already open")
	ErrNotOpen     = errors.New("unit of work is not open")
	ErrSpent       = errors.New("unit of work cannot be reused after close")
)

// Beginner starts database transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UnitOfWork owns exactly one database transaction for the lifetime of
// a logical operation. It is owned by the call site that opened it and
// must never be shared across concurrent operations. Once its scope
// closes it is spent; a new operation gets a new unit of work.
type UnitOfWork struct {
	db      Beginner
	tx      pgx.Tx
	state   string
	outcome string
	spent   bool
	events  []eventbus.Event
}

func New(db Beginner) *UnitOfWork {
	return &UnitOfWork{db: db, state: StateClosed}
}

// Open binds a new transaction. Calling Open on an open or spent unit
// of work is a programmer error.
func (u *UnitOfWork) Open(ctx context.Context) error {
	if u.state == StateOpen {
		return ErrAlreadyOpen
	}
	if u.spent {
		return ErrSpent
	}
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return err
	}
	u.tx = tx
	u.state = StateOpen
	u.outcome = ""
	return nil
}

// Tx exposes the live transaction as the session handle repositories
// consume. Only valid while the unit of work is open.
func (u *UnitOfWork) Tx() pgx.Tx { return u.tx }

func (u *UnitOfWork) State() string   { return u.state }
func (u *UnitOfWork) Outcome() string { return u.outcome }

// Commit commits the current transaction mid-scope and immediately
// begins a fresh one so the scope can keep working. If the new
// transaction cannot be started the scope is dead and marked spent.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.state != StateOpen {
		return ErrNotOpen
	}
	if err := u.tx.Commit(ctx); err != nil {
		return err
	}
	return u.rebind(ctx)
}

// Rollback discards the current transaction mid-scope and begins a
// fresh one, mirroring Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.state != StateOpen {
		return ErrNotOpen
	}
	if err := u.tx.Rollback(ctx); err != nil {
		return err
	}
	u.events = nil
	return u.rebind(ctx)
}

func (u *UnitOfWork) rebind(ctx context.Context) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		u.tx = nil
		u.state = StateClosed
		u.spent = true
		return err
	}
	u.tx = tx
	return nil
}

// Record buffers a domain event on the unit of work. Buffered events
// are handed to the bus only after the surrounding transaction commits,
// so handlers never react to writes that were rolled back.
func (u *UnitOfWork) Record(event eventbus.Event) {
	u.events = append(u.events, event)
}

// finish ends the scope: commit when cause is nil, roll back
// otherwise. The transaction handle is released on every path, even
// when rollback itself fails.
func (u *UnitOfWork) finish(ctx context.Context, cause error) error {
	if u.state != StateOpen {
		return ErrNotOpen
	}

	tx := u.tx
	u.tx = nil
	u.state = StateClosed
	u.spent = true

	if cause != nil {
		u.outcome = OutcomeRolledBack
		u.events = nil
		return tx.Rollback(ctx)
	}
	if err := tx.Commit(ctx); err != nil {
		u.outcome = OutcomeRolledBack
		u.events = nil
		return err
	}
	u.outcome = OutcomeCommitted
	return nil
}

// drainEvents returns and clears the buffered events.
func (u *UnitOfWork) drainEvents() []eventbus.Event {
	events := u.events
	u.events = nil
	return events
}
