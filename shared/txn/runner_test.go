package txn

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
)

func TestExecuteCommitsOnSuccess(t *testing.T) {
	db := &fakeDB{}
	runner, _ := newTestRunner(db)

	id, err := Execute(context.Background(), runner, "create_user", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
		if uow.Tx() == nil {
			t.Fatalf("expected a live session inside the transaction")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
	if len(db.txs) != 1 || !db.txs[0].committed || db.txs[0].rolledBack {
		t.Fatalf("expected exactly one committed tx")
	}
}

func TestExecuteRollsBackAndPropagates(t *testing.T) {
	db := &fakeDB{}
	runner, bus := newTestRunner(db)

	_, err := Execute(context.Background(), runner, "create_user", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
		uow.Record(testEvent{ID: 1})
		return 0, errBusiness
	})
	if !errors.Is(err, errBusiness) {
		t.Fatalf("expected the business error back, got %v", err)
	}
	if !db.txs[0].rolledBack || db.txs[0].committed {
		t.Fatalf("expected rollback without commit")
	}
	if len(bus.published)+len(bus.async) != 0 {
		t.Fatalf("no events may be published for a rolled back transaction")
	}
}

func TestExecuteSwallowReturnsZero(t *testing.T) {
	db := &fakeDB{}
	runner, _ := newTestRunner(db)

	got, err := Execute(context.Background(), runner, "lookup", Options{Swallow: true, Silent: true}, func(ctx context.Context, uow *UnitOfWork) (string, error) {
		return "", errBusiness
	})
	if err != nil {
		t.Fatalf("swallowed failure must not return an error, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected zero value, got %q", got)
	}
	if !db.txs[0].rolledBack {
		t.Fatalf("swallowing must not skip the rollback")
	}
}

func TestExecuteFlushesEventsAfterCommit(t *testing.T) {
	db := &fakeDB{}
	runner, bus := newTestRunner(db)

	_, err := Execute(context.Background(), runner, "register", Options{}, func(ctx context.Context, uow *UnitOfWork) (struct{}, error) {
		uow.Record(testEvent{ID: 1})
		uow.Record(testEvent{ID: 2})
		if len(bus.published) != 0 {
			t.Fatalf("events must not reach the bus before commit")
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(bus.published) != 2 || len(bus.async) != 2 {
		t.Fatalf("expected both buckets flushed post-commit: sync=%d async=%d", len(bus.published), len(bus.async))
	}
	if bus.published[0].(testEvent).ID != 1 {
		t.Fatalf("expected flush in record order")
	}
}

func TestExecuteFlushWritesOneDurableRecordPerEvent(t *testing.T) {
	base := eventbus.New(logx.Logger{})
	path := filepath.Join(t.TempDir(), "events.log")
	durable, err := eventbus.NewDurable(base, path, logx.Logger{})
	if err != nil {
		t.Fatalf("NewDurable failed: %v", err)
	}

	db := &fakeDB{}
	runner := NewRunner(func(ctx context.Context) (Beginner, error) {
		return db, nil
	}, durable, logx.Logger{})

	_, err = Execute(context.Background(), runner, "register", Options{}, func(ctx context.Context, uow *UnitOfWork) (struct{}, error) {
		uow.Record(testEvent{ID: 1})
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	records, err := durable.Replay("")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("one committed event must leave exactly one record, got %d", len(records))
	}
	if records[0].EventType != "test.event" {
		t.Fatalf("unexpected record: %#v", records[0])
	}
}

func TestExecuteCommitFailure(t *testing.T) {
	db := &fakeDB{commitErr: errBusiness}
	runner, bus := newTestRunner(db)

	_, err := Execute(context.Background(), runner, "register", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
		uow.Record(testEvent{ID: 1})
		return 7, nil
	})
	if !errors.Is(err, errBusiness) {
		t.Fatalf("expected commit failure to surface, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatalf("a failed commit must not publish events")
	}
}

func TestExecuteRollbackFailureKeepsOriginalError(t *testing.T) {
	db := &fakeDB{rollbackErr: errors.New("rollback broke")}
	runner, _ := newTestRunner(db)

	_, err := Execute(context.Background(), runner, "register", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
		return 0, errBusiness
	})
	if !errors.Is(err, errBusiness) {
		t.Fatalf("caller must observe the original error, got %v", err)
	}
}

func TestExecuteSourceFailure(t *testing.T) {
	sourceErr := errors.New("no database")
	runner := NewRunner(func(ctx context.Context) (Beginner, error) {
		return nil, sourceErr
	}, &recordingBus{}, logx.Logger{})

	_, err := Execute(context.Background(), runner, "register", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
		t.Fatalf("fn must not run without an engine")
		return 0, nil
	})
	if !errors.Is(err, sourceErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestExecuteReleasesSessionOnPanic(t *testing.T) {
	db := &fakeDB{}
	runner, _ := newTestRunner(db)

	func() {
		defer func() { _ = recover() }()
		_, _ = Execute(context.Background(), runner, "register", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
			panic("handler exploded")
		})
	}()

	if len(db.txs) != 1 || !db.txs[0].rolledBack {
		t.Fatalf("expected the session rolled back after a panic")
	}
}

func TestWrapScenario(t *testing.T) {
	db := &fakeDB{}
	runner, _ := newTestRunner(db)

	createUser := Wrap(runner, "create_user", Options{}, func(ctx context.Context, uow *UnitOfWork) (int, error) {
		return 42, nil
	})

	id, err := createUser(context.Background())
	if err != nil || id != 42 {
		t.Fatalf("expected (42, nil), got (%d, %v)", id, err)
	}
}

func TestServiceDo(t *testing.T) {
	db := &fakeDB{}
	runner, _ := newTestRunner(db)
	svc := NewService(runner)

	ran := false
	if err := svc.Do(context.Background(), "touch", func(ctx context.Context, uow *UnitOfWork) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("service do failed: %v", err)
	}
	if !ran || !db.txs[0].committed {
		t.Fatalf("expected the operation to run and commit")
	}
}
