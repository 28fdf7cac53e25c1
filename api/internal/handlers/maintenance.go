package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/tasks"
	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
)

// maintenanceHandler schedules background work in response to domain
// events. Cleanup of a deactivated account is deferred by the
// retention window so the user can be reinstated in the meantime.
type maintenanceHandler struct {
	logger logx.Logger
	cfg    config.Config
	tasks  *asynq.Client
}

func (h *maintenanceHandler) Handle(ctx context.Context, event eventbus.Event) error {
	switch ev := event.(type) {
	case events.UserDataCleanupRequested:
		return h.scheduleCleanup(ctx, ev)
	case events.BulkOperationCompleted:
		h.logger.Info(ctx, "bulk_operation_completed", "bulk transaction finished",
			slog.String("operation", ev.Operation), slog.Int("count", ev.Count))
		return nil
	}
	return nil
}

func (h *maintenanceHandler) scheduleCleanup(ctx context.Context, ev events.UserDataCleanupRequested) error {
	if h.tasks == nil {
		h.logger.Debug(ctx, "cleanup_not_scheduled", "no task client configured",
			slog.String("user_id", ev.UserID.String()))
		return nil
	}
	task, err := tasks.NewUserCleanupTask(ev.UserID)
	if err != nil {
		return err
	}
	delay := time.Duration(h.cfg.CleanupRetentionDays) * 24 * time.Hour
	info, err := h.tasks.EnqueueContext(ctx, task,
		asynq.Queue(h.cfg.AsynqQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return err
	}
	h.logger.Info(ctx, "cleanup_scheduled", "user data cleanup enqueued",
		slog.String("user_id", ev.UserID.String()),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}
