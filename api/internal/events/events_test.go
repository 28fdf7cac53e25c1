package events

import (
	"testing"

	"conduit-blog-platform/shared/eventbus"
)

func TestKindsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range AllKinds() {
		if seen[k] {
			t.Fatalf("duplicate kind %q", k)
		}
		seen[k] = true
	}
	if len(seen) != 24 {
		t.Fatalf("expected 24 kinds, got %d", len(seen))
	}
}

func TestEventKindsMatchCatalog(t *testing.T) {
	all := map[string]bool{}
	for _, k := range AllKinds() {
		all[k] = true
	}
	evs := []eventbus.Event{
		UserRegistered{}, UserLoggedIn{}, UserLoginAttempted{},
		UserProfileUpdated{}, UserPasswordChanged{},
		UserFollowed{}, UserUnfollowed{}, UserDeactivated{},
		ArticleCreated{}, ArticleUpdated{}, ArticleDeleted{},
		ArticleFavorited{}, ArticleUnfavorited{}, ArticleViewIncremented{},
		CommentAdded{}, CommentDeleted{},
		TagCreated{}, TagUsed{}, PopularTagDetected{},
		ContentFlagged{}, SpamDetected{}, SuspiciousLoginActivity{},
		UserDataCleanupRequested{}, BulkOperationCompleted{},
	}
	for _, ev := range evs {
		if !all[ev.Kind()] {
			t.Errorf("%T has kind %q which is not in the catalog", ev, ev.Kind())
		}
	}
	if len(evs) != len(all) {
		t.Fatalf("catalog has %d kinds but %d event types exist", len(all), len(evs))
	}
}
