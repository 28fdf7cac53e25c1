package txn

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
)

// fakeTx satisfies pgx.Tx for the lifecycle methods the unit of work
// touches; everything else panics if reached.
type fakeTx struct {
	pgx.Tx
	committed   bool
	rolledBack  bool
	commitErr   error
	rollbackErr error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return t.rollbackErr
}

type fakeDB struct {
	txs         []*fakeTx
	beginErr    error
	commitErr   error
	rollbackErr error
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	tx := &fakeTx{commitErr: db.commitErr, rollbackErr: db.rollbackErr}
	db.txs = append(db.txs, tx)
	return tx, nil
}

type recordingBus struct {
	published []eventbus.Event
	async     []eventbus.Event
}

func (b *recordingBus) Publish(ctx context.Context, e eventbus.Event) {
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishAsync(ctx context.Context, e eventbus.Event) {
	b.async = append(b.async, e)
}

func (b *recordingBus) Broadcast(ctx context.Context, e eventbus.Event) {
	b.published = append(b.published, e)
	b.async = append(b.async, e)
}

type testEvent struct {
	ID int `json:"id"`
}

func (testEvent) Kind() string { return "test.event" }

func newTestRunner(db *fakeDB) (*Runner, *recordingBus) {
	bus := &recordingBus{}
	runner := NewRunner(func(ctx context.Context) (Beginner, error) {
		return db, nil
	}, bus, logx.Logger{})
	return runner, bus
}

var errBusiness = errors.New("business failure")
