package dbx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/logx"
)

var ErrNoDatabaseURL = errors.New("DATABASE_URL is required")

// Provider hands out the process-wide pgx pool. The pool is built
// lazily on first use and cached; when the configured connection
// string changes (environment switch), the cached pool is discarded
// and a new one is built on the next call. Reset drops the cache
// entirely, which test runs use to guarantee isolation.
type Provider struct {
	mu     sync.Mutex
	source func() config.Config
	logger logx.Logger

	pool *pgxpool.Pool
	dsn  string
}

func NewProvider(source func() config.Config, logger logx.Logger) *Provider {
	return &Provider{source: source, logger: logger}
}

func (p *Provider) Get(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := p.source()
	if cfg.DatabaseURL == "" {
		return nil, ErrNoDatabaseURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		if p.dsn == cfg.DatabaseURL {
			return p.pool, nil
		}
		p.logger.Warn(ctx, "db_dsn_changed", "database url changed, discarding cached pool",
			slog.String("service", cfg.ServiceName),
		)
		p.pool.Close()
		p.pool = nil
		p.dsn = ""
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	p.dsn = cfg.DatabaseURL
	return pool, nil
}

// Reset closes and forgets the cached pool.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
		p.dsn = ""
	}
}

func NewPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, ErrNoDatabaseURL
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)
	poolCfg.MaxConnIdleTime = time.Duration(cfg.DBConnMaxIdleSec) * time.Second
	poolCfg.MaxConnLifetime = time.Duration(cfg.DBConnMaxLifeSec) * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("db pool is nil")
	}
	var one int
	return pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}
