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

// moderationHandler forwards flagged and spam-suspected content to the
// moderation topic where the review tooling picks it up.
type moderationHandler struct {
	logger   logx.Logger
	producer *mqx.Producer
}

func (h *moderationHandler) Handle(ctx context.Context, event eventbus.Event) error {
	h.logger.Warn(ctx, "content_flagged", "content queued for moderation review",
		slog.String("kind", event.Kind()))

	if h.producer == nil {
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
	return h.producer.Publish(ctx, mqx.TopicModeration, []byte(event.Kind()), payload, nil)
}
