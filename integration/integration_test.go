//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/txn"
)

func TestDependencies(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			t.Fatalf("db connect failed: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			t.Fatalf("db ping failed: %v", err)
		}
	} else {
		t.Skip("DATABASE_URL not set")
	}

	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	if len(brokers) == 0 || strings.TrimSpace(brokers[0]) == "" {
		t.Skip("KAFKA_BROKERS not set")
	}
	conn, err := kafka.Dial("tcp", strings.TrimSpace(brokers[0]))
	if err != nil {
		t.Fatalf("kafka dial failed: %v", err)
	}
	_ = conn.Close()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping failed: %v", err)
	}
	_ = redisClient.Close()
}

func testPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func testRunner(pool *pgxpool.Pool) *txn.Runner {
	return txn.NewRunner(func(ctx context.Context) (txn.Beginner, error) {
		return pool, nil
	}, eventbus.New(logx.Logger{}), logx.Logger{})
}

// Committed rows must be visible from a later transaction; rows from a
// failed scope must not.
func TestCommitAndRollbackVisibility(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := testPool(t, ctx)
	runner := testRunner(pool)

	user, err := txn.Execute(ctx, runner, "it.commit", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct {
		Email string
	}, error) {
		u, err := repos.CreateUser(ctx, uow.Tx(), uniqueName("it-commit"), uniqueName("it-commit")+"@example.test", "hash")
		if err != nil {
			return struct{ Email string }{}, err
		}
		return struct{ Email string }{Email: u.Email}, nil
	})
	if err != nil {
		t.Fatalf("commit scope failed: %v", err)
	}

	_, err = txn.Execute(ctx, runner, "it.verify", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		_, err := repos.GetUserByEmail(ctx, uow.Tx(), user.Email)
		return struct{}{}, err
	})
	if err != nil {
		t.Fatalf("committed user not visible: %v", err)
	}

	rollbackEmail := uniqueName("it-rollback") + "@example.test"
	failure := errors.New("forced failure")
	_, err = txn.Execute(ctx, runner, "it.rollback", txn.Options{Silent: true}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		if _, err := repos.CreateUser(ctx, uow.Tx(), uniqueName("it-rollback"), rollbackEmail, "hash"); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected forced failure, got %v", err)
	}

	_, err = txn.Execute(ctx, runner, "it.verify_rollback", txn.Options{Silent: true}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		_, err := repos.GetUserByEmail(ctx, uow.Tx(), rollbackEmail)
		return struct{}{}, err
	})
	if err == nil {
		t.Fatal("rolled-back user is visible")
	}
}

// A bulk batch is all-or-nothing: one failing operation leaves no rows
// from its siblings behind.
func TestBulkAllOrNothing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := testPool(t, ctx)
	runner := testRunner(pool)

	firstEmail := uniqueName("it-bulk") + "@example.test"
	bulk := txn.NewBulk(runner)
	bulk.Add(func(ctx context.Context, uow *txn.UnitOfWork) (any, error) {
		return repos.CreateUser(ctx, uow.Tx(), uniqueName("it-bulk"), firstEmail, "hash")
	})
	bulk.Add(func(ctx context.Context, uow *txn.UnitOfWork) (any, error) {
		return nil, errors.New("second operation fails")
	})

	if _, err := bulk.ExecuteAll(ctx); err == nil {
		t.Fatal("expected bulk failure")
	}

	_, err := txn.Execute(ctx, runner, "it.verify_bulk", txn.Options{Silent: true}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		_, err := repos.GetUserByEmail(ctx, uow.Tx(), firstEmail)
		return struct{}{}, err
	})
	if err == nil {
		t.Fatal("first bulk operation leaked a committed row")
	}
}

// Events recorded on the unit of work reach subscribers only after the
// commit lands.
func TestEventsFlushAfterCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := testPool(t, ctx)
	bus := eventbus.New(logx.Logger{})

	var seen []string
	bus.Subscribe(func(ctx context.Context, ev eventbus.Event) error {
		seen = append(seen, ev.Kind())
		return nil
	}, events.KindUserRegistered)

	runner := txn.NewRunner(func(ctx context.Context) (txn.Beginner, error) {
		return pool, nil
	}, bus, logx.Logger{})

	_, err := txn.Execute(ctx, runner, "it.events", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		u, err := repos.CreateUser(ctx, uow.Tx(), uniqueName("it-events"), uniqueName("it-events")+"@example.test", "hash")
		if err != nil {
			return struct{}{}, err
		}
		uow.Record(events.UserRegistered{UserID: u.UserID, Username: u.Username, Email: u.Email})
		if len(seen) != 0 {
			return struct{}{}, errors.New("event dispatched before commit")
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("scope failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != events.KindUserRegistered {
		t.Fatalf("expected one user.registered dispatch after commit, got %v", seen)
	}
}

func uniqueName(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(time.Now().UTC().Format("150405.000000000"), ".", "")
}
