package events

import "github.com/google/uuid"

type ContentFlagged struct {
	ContentType string    `json:"content_type"`
	ContentID   uuid.UUID `json:"content_id"`
	Reason      string    `json:"reason"`
}

func (ContentFlagged) Kind() string { return KindContentFlagged }

type SpamDetected struct {
	ContentType string    `json:"content_type"`
	ContentID   uuid.UUID `json:"content_id"`
	AuthorID    uuid.UUID `json:"author_id"`
}

func (SpamDetected) Kind() string { return KindSpamDetected }

// SuspiciousLoginActivity fires when the failed-login counter for an
// account crosses the configured threshold.
type SuspiciousLoginActivity struct {
	Email    string `json:"email"`
	Failures int64  `json:"failures"`
}

func (SuspiciousLoginActivity) Kind() string { return KindSuspiciousLoginActivity }

// UserDataCleanupRequested asks the maintenance worker to purge the
// data of a deactivated account after the retention window.
type UserDataCleanupRequested struct {
	UserID uuid.UUID `json:"user_id"`
}

func (UserDataCleanupRequested) Kind() string { return KindUserDataCleanupRequested }

type BulkOperationCompleted struct {
	Operation string `json:"operation"`
	Count     int    `json:"count"`
}

func (BulkOperationCompleted) Kind() string { return KindBulkOperationCompleted }
