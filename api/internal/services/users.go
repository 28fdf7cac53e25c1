// Package services implements the application operations of the
// platform. Every mutating operation runs inside its own unit of work
// supplied by the transactional runner; domain events are recorded on
// the unit of work and reach the bus only after commit.
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/models"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/txn"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfFollow         = errors.New("users cannot follow themselves")
)

type UserService struct {
	runner *txn.Runner
	bus    eventbus.Publisher
	logger logx.Logger
}

func NewUserService(runner *txn.Runner, bus eventbus.Publisher, logger logx.Logger) *UserService {
	return &UserService{runner: runner, bus: bus, logger: logger}
}

func (s *UserService) Register(ctx context.Context, username string, email string, passwordHash string) (models.User, error) {
	return txn.Execute(ctx, s.runner, "users.register", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.User, error) {
		user, err := repos.CreateUser(ctx, uow.Tx(), username, email, passwordHash)
		if err != nil {
			return models.User{}, err
		}
		uow.Record(events.UserRegistered{UserID: user.UserID, Username: user.Username, Email: user.Email})
		return user, nil
	})
}

// Authenticate looks the account up and lets the caller verify the
// stored hash. A failed attempt publishes its event directly on the
// bus: the failure path commits nothing, so buffered events would be
// dropped with the rollback.
func (s *UserService) Authenticate(ctx context.Context, email string, verify func(passwordHash string) bool) (models.User, error) {
	user, err := txn.Execute(ctx, s.runner, "users.authenticate", txn.Options{Silent: true}, func(ctx context.Context, uow *txn.UnitOfWork) (models.User, error) {
		user, err := repos.GetUserByEmail(ctx, uow.Tx(), email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.User{}, ErrInvalidCredentials
			}
			return models.User{}, err
		}
		if user.DeactivatedAt != nil || !verify(user.PasswordHash) {
			return models.User{}, ErrInvalidCredentials
		}
		if err := repos.TouchLastLogin(ctx, uow.Tx(), user.UserID); err != nil {
			return models.User{}, err
		}
		uow.Record(events.UserLoginAttempted{Email: user.Email, Success: true})
		uow.Record(events.UserLoggedIn{UserID: user.UserID, Username: user.Username, Email: user.Email})
		return user, nil
	})
	if errors.Is(err, ErrInvalidCredentials) {
		s.bus.Broadcast(ctx, events.UserLoginAttempted{Email: email, Success: false})
	}
	return user, err
}

// GetByEmailOptional degrades every failure, including absence, to a
// zero user. Callers that need the distinction use Authenticate or
// GetByID.
func (s *UserService) GetByEmailOptional(ctx context.Context, email string) (models.User, bool) {
	user, err := txn.Execute(ctx, s.runner, "users.get_by_email_optional", txn.Options{Swallow: true, Silent: true}, func(ctx context.Context, uow *txn.UnitOfWork) (models.User, error) {
		return repos.GetUserByEmail(ctx, uow.Tx(), email)
	})
	if err != nil || user.UserID == uuid.Nil {
		return models.User{}, false
	}
	return user, true
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return txn.Execute(ctx, s.runner, "users.get_by_id", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.User, error) {
		user, err := repos.GetUserByID(ctx, uow.Tx(), userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return user, err
	})
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, bio *string, image *string) (models.User, error) {
	return txn.Execute(ctx, s.runner, "users.update_profile", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.User, error) {
		user, updated, err := repos.UpdateUserProfile(ctx, uow.Tx(), userID, bio, image)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.User{}, ErrNotFound
			}
			return models.User{}, err
		}
		if len(updated) > 0 {
			uow.Record(events.UserProfileUpdated{UserID: user.UserID, Username: user.Username, UpdatedFields: updated})
		}
		return user, nil
	})
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	_, err := txn.Execute(ctx, s.runner, "users.change_password", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		if err := repos.UpdatePasswordHash(ctx, uow.Tx(), userID, newPasswordHash); err != nil {
			return struct{}{}, err
		}
		uow.Record(events.UserPasswordChanged{UserID: userID})
		return struct{}{}, nil
	})
	return err
}

// Deactivate soft-deletes the account and asks for its data to be
// purged after the retention window.
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	_, err := txn.Execute(ctx, s.runner, "users.deactivate", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		if err := repos.DeactivateUser(ctx, uow.Tx(), userID); err != nil {
			return struct{}{}, err
		}
		uow.Record(events.UserDeactivated{UserID: userID})
		uow.Record(events.UserDataCleanupRequested{UserID: userID})
		return struct{}{}, nil
	})
	return err
}
