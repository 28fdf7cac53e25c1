// Package events is the catalog of domain events published by the
// blogging platform. Events are immutable value objects: they carry
// identifiers and primitive facts about what happened, never behavior.
//
// Every event has a stable kind string used for handler registration
// and for the durable event log. Kind groups let a handler observe a
// whole family of events with one subscription.
package events

const (
	KindUserRegistered      = "user.registered"
	KindUserLoggedIn        = "user.logged_in"
	KindUserLoginAttempted  = "user.login_attempted"
	KindUserProfileUpdated  = "user.profile_updated"
	KindUserPasswordChanged = "user.password_changed"
	KindUserFollowed        = "user.followed"
	KindUserUnfollowed      = "user.unfollowed"
	KindUserDeactivated     = "user.deactivated"

	KindArticleCreated         = "article.created"
	KindArticleUpdated         = "article.updated"
	KindArticleDeleted         = "article.deleted"
	KindArticleFavorited       = "article.favorited"
	KindArticleUnfavorited     = "article.unfavorited"
	KindArticleViewIncremented = "article.view_incremented"

	KindCommentAdded   = "comment.added"
	KindCommentDeleted = "comment.deleted"

	KindTagCreated         = "tag.created"
	KindTagUsed            = "tag.used"
	KindPopularTagDetected = "tag.popular_detected"

	KindContentFlagged           = "system.content_flagged"
	KindSpamDetected             = "system.spam_detected"
	KindSuspiciousLoginActivity  = "system.suspicious_login_activity"
	KindUserDataCleanupRequested = "system.user_data_cleanup_requested"
	KindBulkOperationCompleted   = "system.bulk_operation_completed"
)

// UserKinds covers the whole user family; a handler subscribed to it
// sees every user event.
func UserKinds() []string {
	return []string{
		KindUserRegistered, KindUserLoggedIn, KindUserLoginAttempted,
		KindUserProfileUpdated, KindUserPasswordChanged,
		KindUserFollowed, KindUserUnfollowed, KindUserDeactivated,
	}
}

func ArticleKinds() []string {
	return []string{
		KindArticleCreated, KindArticleUpdated, KindArticleDeleted,
		KindArticleFavorited, KindArticleUnfavorited, KindArticleViewIncremented,
	}
}

func CommentKinds() []string {
	return []string{KindCommentAdded, KindCommentDeleted}
}

func TagKinds() []string {
	return []string{KindTagCreated, KindTagUsed, KindPopularTagDetected}
}

func SystemKinds() []string {
	return []string{
		KindContentFlagged, KindSpamDetected, KindSuspiciousLoginActivity,
		KindUserDataCleanupRequested, KindBulkOperationCompleted,
	}
}

// AllKinds is every catalog kind, for handlers that archive or forward
// everything.
func AllKinds() []string {
	var all []string
	all = append(all, UserKinds()...)
	all = append(all, ArticleKinds()...)
	all = append(all, CommentKinds()...)
	all = append(all, TagKinds()...)
	all = append(all, SystemKinds()...)
	return all
}
