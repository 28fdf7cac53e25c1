package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/mqx"
)

// notificationHandler forwards user-visible domain events to the
// notifications topic. Downstream consumers (email, push, digest
// builders) read from Kafka, never from the in-process bus.
type notificationHandler struct {
	logger   logx.Logger
	producer *mqx.Producer
}

type eventEnvelope struct {
	Kind       string `json:"kind"`
	OccurredAt string `json:"occurred_at"`
	Data       any    `json:"data"`
}

func (h *notificationHandler) Handle(ctx context.Context, event eventbus.Event) error {
	if h.producer == nil {
		h.logger.Debug(ctx, "notification_skipped", "no kafka producer configured",
			slog.String("kind", event.Kind()))
		return nil
	}

	payload, err := json.Marshal(eventEnvelope{
		Kind:       event.Kind(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Data:       event,
	})
	if err != nil {
		return err
	}
	return h.producer.Publish(ctx, mqx.TopicNotifications, []byte(event.Kind()), payload, nil)
}
