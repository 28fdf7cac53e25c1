package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/shared/cachex"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/influxx"
	"conduit-blog-platform/shared/logx"
)

// analyticsHandler maintains rolling counters in Redis and mirrors
// measurements into InfluxDB. Counters use day-scoped keys so reads
// stay cheap and keys expire on their own.
type analyticsHandler struct {
	logger logx.Logger
	cache  *cachex.Client
	influx *influxx.Client
}

const counterTTL = 48 * time.Hour

func (h *analyticsHandler) Handle(ctx context.Context, event eventbus.Event) error {
	switch ev := event.(type) {
	case events.UserRegistered:
		h.bump(ctx, dayKey("signups"))
		return h.point(ctx, "user_signups", nil, map[string]any{"count": 1})
	case events.ArticleCreated:
		h.bump(ctx, dayKey("articles"))
		return h.point(ctx, "articles_created",
			map[string]string{"author_id": ev.AuthorID.String()},
			map[string]any{"count": 1})
	case events.ArticleViewIncremented:
		h.bump(ctx, dayKey("views"))
		return h.point(ctx, "article_views",
			map[string]string{"article_id": ev.ArticleID.String()},
			map[string]any{"views": ev.Views})
	case events.ArticleFavorited:
		return h.point(ctx, "article_favorites",
			map[string]string{"article_id": ev.ArticleID.String()},
			map[string]any{"delta": 1})
	case events.ArticleUnfavorited:
		return h.point(ctx, "article_favorites",
			map[string]string{"article_id": ev.ArticleID.String()},
			map[string]any{"delta": -1})
	case events.CommentAdded:
		h.bump(ctx, dayKey("comments"))
		return h.point(ctx, "comments_added",
			map[string]string{"article_id": ev.ArticleID.String()},
			map[string]any{"count": 1})
	}
	return nil
}

func (h *analyticsHandler) bump(ctx context.Context, key string) {
	if h.cache == nil {
		return
	}
	if _, err := h.cache.Incr(ctx, key, counterTTL); err != nil {
		h.logger.Warn(ctx, "analytics_counter_failed", "redis counter bump failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (h *analyticsHandler) point(ctx context.Context, measurement string, tags map[string]string, fields map[string]any) error {
	if h.influx == nil {
		return nil
	}
	return h.influx.WritePoint(ctx, measurement, tags, fields, time.Now().UTC())
}

func dayKey(name string) string {
	return fmt.Sprintf("analytics:%s:%s", name, time.Now().UTC().Format("2006-01-02"))
}
