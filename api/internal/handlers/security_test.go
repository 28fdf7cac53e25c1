package handlers

import (
	"context"
	"testing"
	"time"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/shared/config"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
)

type fixedCounter struct{ n int64 }

func (c fixedCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return c.n, nil
}

type recordingPublisher struct {
	published []eventbus.Event
	async     []eventbus.Event
	broadcast []eventbus.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e eventbus.Event) {
	p.published = append(p.published, e)
}

func (p *recordingPublisher) PublishAsync(ctx context.Context, e eventbus.Event) {
	p.async = append(p.async, e)
}

func (p *recordingPublisher) Broadcast(ctx context.Context, e eventbus.Event) {
	p.broadcast = append(p.broadcast, e)
}

func newSecurityHandler(counter failureCounter, pub eventbus.Publisher) *securityHandler {
	return &securityHandler{
		logger:    logx.Logger{},
		cfg:       config.Config{FailedLoginThreshold: 5},
		counter:   counter,
		publisher: pub,
	}
}

func TestFailedLoginAtThresholdRaisesSuspiciousActivity(t *testing.T) {
	pub := &recordingPublisher{}
	h := newSecurityHandler(fixedCounter{n: 5}, pub)

	err := h.Handle(context.Background(), events.UserLoginAttempted{Email: "jake@jake.jake", Success: false})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	// The raised event must go through the injected publisher as a
	// broadcast, so a durable decorator sees it like any other event.
	if len(pub.broadcast) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(pub.broadcast))
	}
	if len(pub.published)+len(pub.async) != 0 {
		t.Fatalf("raised event must not bypass the broadcast path")
	}
	sus, ok := pub.broadcast[0].(events.SuspiciousLoginActivity)
	if !ok {
		t.Fatalf("expected SuspiciousLoginActivity, got %T", pub.broadcast[0])
	}
	if sus.Email != "jake@jake.jake" || sus.Failures != 5 {
		t.Fatalf("unexpected event: %#v", sus)
	}
}

func TestFailedLoginBelowThresholdRaisesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	h := newSecurityHandler(fixedCounter{n: 4}, pub)

	if err := h.Handle(context.Background(), events.UserLoginAttempted{Email: "jake@jake.jake", Success: false}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(pub.broadcast) != 0 {
		t.Fatalf("below threshold must raise nothing, got %d events", len(pub.broadcast))
	}
}

func TestSuccessfulLoginDoesNotTouchTheCounter(t *testing.T) {
	pub := &recordingPublisher{}
	h := newSecurityHandler(fixedCounter{n: 5}, pub)

	if err := h.Handle(context.Background(), events.UserLoginAttempted{Email: "jake@jake.jake", Success: true}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(pub.broadcast) != 0 {
		t.Fatalf("successful login must not raise suspicion, got %d events", len(pub.broadcast))
	}
}

func TestRegisterAllRoutesRaisedEventsThroughDeps(t *testing.T) {
	bus := eventbus.New(logx.Logger{})
	pub := &recordingPublisher{}
	RegisterAll(bus, Deps{Logger: logx.Logger{}, Publisher: pub})

	// Without a cache there is no failure tracking, so nothing may be
	// raised, but registration itself must accept the publisher.
	bus.Publish(context.Background(), events.UserLoginAttempted{Email: "jake@jake.jake", Success: false})
	if len(pub.broadcast) != 0 {
		t.Fatalf("no counter configured, expected no raised events, got %d", len(pub.broadcast))
	}
}
