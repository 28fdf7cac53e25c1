package services

import (
	"context"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/txn"
)

type ProfileService struct {
	runner *txn.Runner
	logger logx.Logger
}

func NewProfileService(runner *txn.Runner, logger logx.Logger) *ProfileService {
	return &ProfileService{runner: runner, logger: logger}
}

// Follow is idempotent: following an already-followed user commits
// without publishing anything.
func (s *ProfileService) Follow(ctx context.Context, followerID uuid.UUID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}
	_, err := txn.Execute(ctx, s.runner, "profiles.follow", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		added, err := repos.AddFollow(ctx, uow.Tx(), followerID, followeeID)
		if err != nil {
			return struct{}{}, err
		}
		if added {
			uow.Record(events.UserFollowed{FollowerID: followerID, FolloweeID: followeeID})
		}
		return struct{}{}, nil
	})
	return err
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID uuid.UUID, followeeID uuid.UUID) error {
	_, err := txn.Execute(ctx, s.runner, "profiles.unfollow", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		removed, err := repos.RemoveFollow(ctx, uow.Tx(), followerID, followeeID)
		if err != nil {
			return struct{}{}, err
		}
		if removed {
			uow.Record(events.UserUnfollowed{FollowerID: followerID, FolloweeID: followeeID})
		}
		return struct{}{}, nil
	})
	return err
}

func (s *ProfileService) IsFollowing(ctx context.Context, followerID uuid.UUID, followeeID uuid.UUID) (bool, error) {
	return txn.Execute(ctx, s.runner, "profiles.is_following", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (bool, error) {
		return repos.IsFollowing(ctx, uow.Tx(), followerID, followeeID)
	})
}
