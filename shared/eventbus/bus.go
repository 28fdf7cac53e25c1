// Package eventbus connects domain events to their handlers.
//
// Publishing is fire-and-forget: a failing handler is logged and
// counted but can never reach the publisher or stop sibling handlers.
// The registry is keyed by event kind; handlers that want to observe a
// whole family of events subscribe to the family's kind group.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/metricsx"
)

// Event is an immutable record of a business occurrence. Kind returns
// the stable discriminant used for handler lookup and for the durable
// log, e.g. "article.created".
type Event interface {
	Kind() string
}

// Handler reacts to one event. A returned error is logged and
// isolated; it never propagates past the bus.
type Handler func(ctx context.Context, event Event) error

// Publisher is the dispatch surface shared by the plain bus and the
// durable decorator.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	PublishAsync(ctx context.Context, event Event)
	// Broadcast dispatches to the sync bucket and then the async
	// bucket as one publish. Decorators treat it as a single event.
	Broadcast(ctx context.Context, event Event)
}

// Bus routes events to subscribed handlers. Subscriptions happen
// during single-threaded startup; publish paths only read the
// registry, so no locking is needed at request time.
type Bus struct {
	sync   map[string][]Handler
	async  map[string][]Handler
	logger logx.Logger
}

func New(logger logx.Logger) *Bus {
	return &Bus{
		sync:   make(map[string][]Handler),
		async:  make(map[string][]Handler),
		logger: logger,
	}
}

// Subscribe registers a synchronous handler for the given kinds.
// Handlers for one kind run in registration order.
func (b *Bus) Subscribe(handler Handler, kinds ...string) {
	for _, kind := range kinds {
		b.sync[kind] = append(b.sync[kind], handler)
	}
}

// SubscribeAsync registers a handler in the async bucket, dispatched
// only by PublishAsync. Same ordering rule as Subscribe.
func (b *Bus) SubscribeAsync(handler Handler, kinds ...string) {
	for _, kind := range kinds {
		b.async[kind] = append(b.async[kind], handler)
	}
}

// Publish dispatches the event to every synchronous handler of its
// kind, in order, isolating each call.
func (b *Bus) Publish(ctx context.Context, event Event) {
	metricsx.IncEventPublished(event.Kind())
	b.dispatch(ctx, b.sync[event.Kind()], event)
}

// PublishAsync dispatches the event to the async bucket. Handlers run
// sequentially; the call returns once all have finished.
func (b *Bus) PublishAsync(ctx context.Context, event Event) {
	b.dispatch(ctx, b.async[event.Kind()], event)
}

// Broadcast runs the sync bucket and then the async bucket, counting
// the event once. This is the entry point for events that must reach
// every subscriber regardless of bucket.
func (b *Bus) Broadcast(ctx context.Context, event Event) {
	metricsx.IncEventPublished(event.Kind())
	b.dispatch(ctx, b.sync[event.Kind()], event)
	b.dispatch(ctx, b.async[event.Kind()], event)
}

func (b *Bus) dispatch(ctx context.Context, handlers []Handler, event Event) {
	for _, handler := range handlers {
		if err := b.call(ctx, handler, event); err != nil {
			metricsx.IncEventHandlerFailure(event.Kind())
			b.logger.Error(ctx, "event_handler_failed", "event handler failed",
				slog.String("kind", event.Kind()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// call invokes one handler, converting a panic into an error so a
// broken handler cannot take down the publisher.
func (b *Bus) call(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, event)
}

// SubscriberCounts reports the number of sync handlers per kind, for
// startup diagnostics.
func (b *Bus) SubscriberCounts() map[string]int {
	counts := make(map[string]int, len(b.sync))
	for kind, handlers := range b.sync {
		counts[kind] = len(handlers)
	}
	return counts
}
