package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func AddFollow(ctx context.Context, db DBTX, followerID uuid.UUID, followeeID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`, followerID, followeeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func RemoveFollow(ctx context.Context, db DBTX, followerID uuid.UUID, followeeID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func IsFollowing(ctx context.Context, db DBTX, followerID uuid.UUID, followeeID uuid.UUID) (bool, error) {
	var one int
	err := db.QueryRow(ctx, `
		SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
