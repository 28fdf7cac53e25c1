package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	UserID        uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	Bio           string
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
	DeactivatedAt *time.Time
}

type Article struct {
	ArticleID   uuid.UUID
	AuthorID    uuid.UUID
	Slug        string
	Title       string
	Description string
	Body        string
	Views       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	CommentID uuid.UUID
	ArticleID uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
}

type Follow struct {
	FollowerID uuid.UUID
	FolloweeID uuid.UUID
	CreatedAt  time.Time
}

type Favorite struct {
	ArticleID uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

type Tag struct {
	Name      string
	CreatedAt time.Time
}

// SecurityAudit is one persisted security-relevant occurrence, written
// by the security event handler outside the triggering transaction.
type SecurityAudit struct {
	AuditID    uuid.UUID
	OccurredAt time.Time
	UserID     *uuid.UUID
	Action     string
	Subject    string
	Success    bool
	Details    []byte
}
