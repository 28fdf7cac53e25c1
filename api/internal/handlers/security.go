package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/models"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
)

// failureCounter is the slice of the redis client the handler needs.
type failureCounter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// securityHandler persists security-relevant events as audit rows and
// tracks failed logins per account. When failures for one email cross
// the configured threshold inside the tracking window it raises a
// SuspiciousLoginActivity event through the process publisher, so the
// raised event travels the same path (including the durable log) as
// any other.
type securityHandler struct {
	logger    logx.Logger
	cfg       config.Config
	counter   failureCounter
	audit     *repos.AuditRepo
	publisher eventbus.Publisher
}

const failedLoginWindow = 15 * time.Minute

func (h *securityHandler) Handle(ctx context.Context, event eventbus.Event) error {
	switch ev := event.(type) {
	case events.UserLoginAttempted:
		if err := h.writeAudit(ctx, nil, "login_attempt", ev.Email, ev.Success, ev); err != nil {
			return err
		}
		if !ev.Success {
			return h.trackFailedLogin(ctx, ev.Email)
		}
		return nil
	case events.UserPasswordChanged:
		return h.writeAudit(ctx, &ev.UserID, "password_changed", ev.UserID.String(), true, ev)
	case events.UserDeactivated:
		return h.writeAudit(ctx, &ev.UserID, "account_deactivated", ev.UserID.String(), true, ev)
	case events.SuspiciousLoginActivity:
		h.logger.Warn(ctx, "suspicious_login_activity", "failed-login threshold crossed",
			slog.String("email", ev.Email), slog.Int64("failures", ev.Failures))
		return h.writeAudit(ctx, nil, "suspicious_login_activity", ev.Email, false, ev)
	}
	return nil
}

func (h *securityHandler) trackFailedLogin(ctx context.Context, email string) error {
	if h.counter == nil {
		return nil
	}
	key := fmt.Sprintf("security:login_failures:%s", email)
	n, err := h.counter.Incr(ctx, key, failedLoginWindow)
	if err != nil {
		h.logger.Warn(ctx, "login_failure_tracking_failed", "redis counter bump failed",
			slog.String("error", err.Error()))
		return nil
	}
	if h.cfg.FailedLoginThreshold > 0 && n == int64(h.cfg.FailedLoginThreshold) && h.publisher != nil {
		h.publisher.Broadcast(ctx, events.SuspiciousLoginActivity{Email: email, Failures: n})
	}
	return nil
}

func (h *securityHandler) writeAudit(ctx context.Context, userID *uuid.UUID, action string, subject string, success bool, event eventbus.Event) error {
	if !h.cfg.AuditEnabled || h.audit == nil {
		return nil
	}
	details, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.audit.Write(ctx, []models.SecurityAudit{{
		UserID:  userID,
		Action:  action,
		Subject: subject,
		Success: success,
		Details: details,
	}})
}
