package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/api/internal/tasks"
	"conduit-blog-platform/shared/cachex"
	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/dbx"
	"conduit-blog-platform/shared/lockx"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/observability"
)

const cleanupLockKey = "locks:user_cleanup"

func main() {
	cfg, problems := config.Load("maintenance-worker", 8083)
	version := strings.TrimSpace(os.Getenv("VERSION"))
	logger := logx.New(cfg.ServiceName, cfg.Env, version, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		problems = append(problems, config.Problem{Field: "DATABASE_URL", Message: "DATABASE_URL is required"})
	}
	if cfg.AsynqRedisAddr == "" {
		problems = append(problems, config.Problem{Field: "ASYNQ_REDIS_ADDR", Message: "ASYNQ_REDIS_ADDR is required"})
	}
	if len(problems) > 0 {
		logger.Error(context.Background(), "config_invalid", "invalid config",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.Any("problems", problems),
		)
		os.Exit(1)
	}

	if cfg.OtelEnabled {
		if shutdown, err := observability.InitTracer(context.Background(), observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OtelEndpoint,
			Insecure:    cfg.OtelInsecure,
			SampleRatio: cfg.OtelSampleRatio,
		}); err == nil {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	dbPool, err := dbx.NewPool(context.Background(), cfg)
	if err != nil {
		logger.Error(context.Background(), "db_init_failed", "db init failed",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer dbPool.Close()

	var cache *cachex.Client
	if cfg.RedisAddr != "" {
		cache, err = cachex.New(cfg)
		if err != nil {
			logger.Warn(context.Background(), "redis_init_failed", "redis init failed, running without the cleanup lock",
				slog.String("error", err.Error()))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPass,
		DB:       cfg.AsynqRedisDB,
	}, asynq.Config{
		Concurrency: cfg.AsynqConcurrency,
		Queues: map[string]int{
			cfg.AsynqQueue: 1,
		},
	})
	defer server.Shutdown()

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeUserCleanup, func(ctx context.Context, t *asynq.Task) error {
		ctx, span := otel.Tracer("asynq").Start(ctx, "user.cleanup")
		span.SetAttributes(attribute.String("queue", cfg.AsynqQueue))
		defer span.End()

		payload, err := tasks.ParseUserCleanupPayload(t)
		if err != nil {
			return err
		}

		// Only one worker instance runs the purge at a time; a lost
		// lock means another instance already holds the sweep.
		if cache != nil {
			lock, won, err := lockx.Acquire(ctx, cache.Client(), cleanupLockKey, 5*time.Minute)
			if err != nil {
				return err
			}
			if !won {
				logger.Info(ctx, "cleanup_skipped", "another worker holds the cleanup lock",
					slog.String("user_id", payload.UserID.String()))
				return nil
			}
			defer func() { _ = lockx.Release(ctx, cache.Client(), lock) }()
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.CleanupRetentionDays)
		purged, err := repos.PurgeDeactivatedBefore(ctx, dbPool, cutoff)
		if err != nil {
			return err
		}
		logger.Info(ctx, "cleanup_done", "deactivated accounts purged",
			slog.String("user_id", payload.UserID.String()),
			slog.Int64("purged", purged),
			slog.Time("cutoff", cutoff),
		)
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "worker_start", "maintenance worker started",
			slog.String("queue", cfg.AsynqQueue),
			slog.Int("concurrency", cfg.AsynqConcurrency),
			slog.Int("retention_days", cfg.CleanupRetentionDays),
		)
		errCh <- server.Run(mux)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info(context.Background(), "shutdown_signal", "received signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, asynq.ErrServerClosed) {
			logger.Error(context.Background(), "worker_failed", "worker failed",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	logger.Info(context.Background(), "worker_stop", "maintenance worker stopped")
}
