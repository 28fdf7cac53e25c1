// Package handlers contains the event handlers that react to the
// domain event catalog: notification fan-out, analytics counters,
// moderation forwarding, security auditing and maintenance scheduling.
//
// Every handler tolerates missing infrastructure: a nil cache, producer
// or audit repo turns the handler into a logged no-op so that the API
// keeps serving when an optional backend is down or not configured.
package handlers

import (
	"github.com/hibiken/asynq"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/cachex"
	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/influxx"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/mqx"
)

// Deps carries the infrastructure the handler suites need. Any field
// may be nil; the owning handler degrades to a no-op for that concern.
type Deps struct {
	Logger   logx.Logger
	Cfg      config.Config
	Cache    *cachex.Client
	Producer *mqx.Producer
	Influx   *influxx.Client
	Audit    *repos.AuditRepo
	Tasks    *asynq.Client

	// Publisher is the process-wide publish surface handlers use when
	// they raise events of their own. Pass the durable decorator here
	// when event logging is enabled, so raised events are persisted
	// like any other; nil falls back to the plain bus.
	Publisher eventbus.Publisher
}

// RegisterAll wires every handler suite onto the bus. Security and
// maintenance run in the sync bucket so their effects are observed
// before the publishing request returns; notifications, analytics and
// moderation forwarding are fire-and-forget and run async.
func RegisterAll(bus *eventbus.Bus, deps Deps) {
	n := &notificationHandler{logger: deps.Logger, producer: deps.Producer}
	notifyKinds := append(events.UserKinds(), events.ArticleKinds()...)
	notifyKinds = append(notifyKinds, events.CommentKinds()...)
	bus.SubscribeAsync(n.Handle, notifyKinds...)

	a := &analyticsHandler{logger: deps.Logger, cache: deps.Cache, influx: deps.Influx}
	bus.SubscribeAsync(a.Handle,
		events.KindUserRegistered,
		events.KindArticleCreated,
		events.KindArticleViewIncremented,
		events.KindArticleFavorited,
		events.KindArticleUnfavorited,
		events.KindCommentAdded,
	)

	m := &moderationHandler{logger: deps.Logger, producer: deps.Producer}
	bus.SubscribeAsync(m.Handle, events.KindContentFlagged, events.KindSpamDetected)

	publisher := deps.Publisher
	if publisher == nil {
		publisher = bus
	}
	s := &securityHandler{
		logger:    deps.Logger,
		cfg:       deps.Cfg,
		audit:     deps.Audit,
		publisher: publisher,
	}
	if deps.Cache != nil {
		s.counter = deps.Cache
	}
	bus.Subscribe(s.Handle,
		events.KindUserLoginAttempted,
		events.KindUserPasswordChanged,
		events.KindUserDeactivated,
		events.KindSuspiciousLoginActivity,
	)

	mt := &maintenanceHandler{logger: deps.Logger, cfg: deps.Cfg, tasks: deps.Tasks}
	bus.Subscribe(mt.Handle,
		events.KindUserDataCleanupRequested,
		events.KindBulkOperationCompleted,
	)
}
