package events

import "github.com/google/uuid"

// UserRegistered is published when a new account is created.
type UserRegistered struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (UserRegistered) Kind() string { return KindUserRegistered }

// UserLoggedIn is published after a successful authentication.
type UserLoggedIn struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (UserLoggedIn) Kind() string { return KindUserLoggedIn }

// UserLoginAttempted is published for every authentication attempt,
// successful or not. Security handlers watch the failures.
type UserLoginAttempted struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
}

func (UserLoginAttempted) Kind() string { return KindUserLoginAttempted }

type UserProfileUpdated struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	UpdatedFields []string  `json:"updated_fields"`
}

func (UserProfileUpdated) Kind() string { return KindUserProfileUpdated }

type UserPasswordChanged struct {
	UserID uuid.UUID `json:"user_id"`
}

func (UserPasswordChanged) Kind() string { return KindUserPasswordChanged }

type UserFollowed struct {
	FollowerID uuid.UUID `json:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id"`
}

func (UserFollowed) Kind() string { return KindUserFollowed }

type UserUnfollowed struct {
	FollowerID uuid.UUID `json:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id"`
}

func (UserUnfollowed) Kind() string { return KindUserUnfollowed }

type UserDeactivated struct {
	UserID uuid.UUID `json:"user_id"`
}

func (UserDeactivated) Kind() string { return KindUserDeactivated }
