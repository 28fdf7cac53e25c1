package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
)

// With no infrastructure configured every handler must degrade to a
// no-op instead of panicking or erroring.
func TestRegisterAllToleratesMissingInfrastructure(t *testing.T) {
	bus := eventbus.New(logx.Logger{})
	RegisterAll(bus, Deps{Logger: logx.Logger{}})

	ctx := context.Background()
	id := uuid.New()
	catalog := []eventbus.Event{
		events.UserRegistered{UserID: id, Username: "jake", Email: "jake@jake.jake"},
		events.UserLoggedIn{UserID: id, Username: "jake", Email: "jake@jake.jake"},
		events.UserLoginAttempted{Email: "jake@jake.jake", Success: false},
		events.UserProfileUpdated{UserID: id, Username: "jake", UpdatedFields: []string{"bio"}},
		events.UserPasswordChanged{UserID: id},
		events.UserFollowed{FollowerID: id, FolloweeID: uuid.New()},
		events.UserUnfollowed{FollowerID: id, FolloweeID: uuid.New()},
		events.UserDeactivated{UserID: id},
		events.ArticleCreated{ArticleID: id, AuthorID: id, Slug: "how-to-train-your-dragon"},
		events.ArticleUpdated{ArticleID: id, AuthorID: id, UpdatedFields: []string{"title"}},
		events.ArticleDeleted{ArticleID: id, AuthorID: id},
		events.ArticleFavorited{ArticleID: id, UserID: id},
		events.ArticleUnfavorited{ArticleID: id, UserID: id},
		events.ArticleViewIncremented{ArticleID: id, Views: 7},
		events.CommentAdded{CommentID: id, ArticleID: id, AuthorID: id},
		events.CommentDeleted{CommentID: id, ArticleID: id},
		events.TagCreated{Name: "dragons"},
		events.TagUsed{Name: "dragons", ArticleID: id},
		events.PopularTagDetected{Name: "dragons", Count: 10},
		events.ContentFlagged{ContentType: "comment", ContentID: id, Reason: "abuse"},
		events.SpamDetected{ContentType: "comment", ContentID: id, AuthorID: id},
		events.SuspiciousLoginActivity{Email: "jake@jake.jake", Failures: 5},
		events.UserDataCleanupRequested{UserID: id},
		events.BulkOperationCompleted{Operation: "comments.add", Count: 3},
	}
	for _, ev := range catalog {
		bus.Publish(ctx, ev)
		bus.PublishAsync(ctx, ev)
	}
}

func TestRegisterAllWiresSecurityKindsSync(t *testing.T) {
	bus := eventbus.New(logx.Logger{})
	RegisterAll(bus, Deps{Logger: logx.Logger{}})

	counts := bus.SubscriberCounts()
	for _, kind := range []string{
		events.KindUserLoginAttempted,
		events.KindUserPasswordChanged,
		events.KindUserDeactivated,
		events.KindSuspiciousLoginActivity,
		events.KindUserDataCleanupRequested,
		events.KindBulkOperationCompleted,
	} {
		if counts[kind] == 0 {
			t.Errorf("expected a sync subscriber for %q", kind)
		}
	}
}
