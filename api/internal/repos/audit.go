package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"conduit-blog-platform/api/internal/models"
)

// AuditRepo persists security audit rows. It writes against the pool
// directly: audit writes happen after the triggering transaction has
// committed and must not join it.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Write(ctx context.Context, entries []models.SecurityAudit) error {
	if r == nil || r.pool == nil || len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range entries {
		entry := entries[i]
		if entry.AuditID == uuid.Nil {
			entry.AuditID = uuid.New()
		}
		if entry.OccurredAt.IsZero() {
			entry.OccurredAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO security_audits (audit_id, occurred_at, user_id, action, subject, success, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, entry.AuditID, entry.OccurredAt, entry.UserID, entry.Action, entry.Subject, entry.Success, entry.Details)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
