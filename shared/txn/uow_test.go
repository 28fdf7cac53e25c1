package txn

import (
	"context"
	"testing"
)

func TestOpenTwiceFails(t *testing.T) {
	db := &fakeDB{}
	uow := New(db)
	if err := uow.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := uow.Open(context.Background()); err != ErrAlreadyOpen {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestUnitOfWorkIsNotReusable(t *testing.T) {
	db := &fakeDB{}
	uow := New(db)
	if err := uow.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := uow.finish(context.Background(), nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if uow.State() != StateClosed || uow.Outcome() != OutcomeCommitted {
		t.Fatalf("unexpected state %q outcome %q", uow.State(), uow.Outcome())
	}
	if err := uow.Open(context.Background()); err != ErrSpent {
		t.Fatalf("expected ErrSpent, got %v", err)
	}
}

func TestFinishWithErrorRollsBack(t *testing.T) {
	db := &fakeDB{}
	uow := New(db)
	if err := uow.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	uow.Record(testEvent{ID: 1})
	if err := uow.finish(context.Background(), errBusiness); err != nil {
		t.Fatalf("rollback reported error: %v", err)
	}
	if !db.txs[0].rolledBack || db.txs[0].committed {
		t.Fatalf("expected rollback without commit")
	}
	if uow.Outcome() != OutcomeRolledBack {
		t.Fatalf("unexpected outcome %q", uow.Outcome())
	}
	if events := uow.drainEvents(); len(events) != 0 {
		t.Fatalf("rolled back scope must drop its events, got %d", len(events))
	}
}

func TestRollbackFailureStillCloses(t *testing.T) {
	db := &fakeDB{rollbackErr: errBusiness}
	uow := New(db)
	if err := uow.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := uow.finish(context.Background(), errBusiness); err == nil {
		t.Fatalf("expected rollback error to surface")
	}
	if uow.State() != StateClosed {
		t.Fatalf("session must be released even when rollback fails, state=%q", uow.State())
	}
}

func TestMidScopeCommitKeepsScopeAlive(t *testing.T) {
	db := &fakeDB{}
	uow := New(db)
	if err := uow.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := uow.Commit(context.Background()); err != nil {
		t.Fatalf("mid-scope commit failed: %v", err)
	}
	if uow.State() != StateOpen {
		t.Fatalf("expected scope to stay open, state=%q", uow.State())
	}
	if len(db.txs) != 2 || !db.txs[0].committed {
		t.Fatalf("expected first tx committed and a fresh tx begun, got %d txs", len(db.txs))
	}
	if err := uow.finish(context.Background(), nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if !db.txs[1].committed {
		t.Fatalf("expected second tx committed on scope exit")
	}
}

func TestMidScopeRollbackDropsBufferedEvents(t *testing.T) {
	db := &fakeDB{}
	uow := New(db)
	if err := uow.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	uow.Record(testEvent{ID: 1})
	if err := uow.Rollback(context.Background()); err != nil {
		t.Fatalf("mid-scope rollback failed: %v", err)
	}
	if uow.State() != StateOpen {
		t.Fatalf("expected scope to stay open, state=%q", uow.State())
	}
	uow.Record(testEvent{ID: 2})
	if err := uow.finish(context.Background(), nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	events := uow.drainEvents()
	if len(events) != 1 {
		t.Fatalf("expected only post-rollback event to survive, got %d", len(events))
	}
}

func TestCommitWhenClosedFails(t *testing.T) {
	uow := New(&fakeDB{})
	if err := uow.Commit(context.Background()); err != ErrNotOpen {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if err := uow.Rollback(context.Background()); err != ErrNotOpen {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}
