package repos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/models"
)

func CreateUser(ctx context.Context, db DBTX, username string, email string, passwordHash string) (models.User, error) {
	var user models.User
	now := time.Now().UTC()
	err := db.QueryRow(ctx, `
		INSERT INTO users (user_id, username, email, password_hash, bio, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '', '', $5, $5)
		RETURNING user_id, username, email, password_hash, bio, image, created_at, updated_at, last_login_at, deactivated_at
	`, uuid.New(), username, strings.ToLower(strings.TrimSpace(email)), passwordHash, now).
		Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash, &user.Bio, &user.Image,
			&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.DeactivatedAt)
	return user, err
}

func GetUserByID(ctx context.Context, db DBTX, userID uuid.UUID) (models.User, error) {
	var user models.User
	err := db.QueryRow(ctx, `
		SELECT user_id, username, email, password_hash, bio, image, created_at, updated_at, last_login_at, deactivated_at
		FROM users
		WHERE user_id = $1
	`, userID).
		Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash, &user.Bio, &user.Image,
			&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.DeactivatedAt)
	return user, err
}

func GetUserByEmail(ctx context.Context, db DBTX, email string) (models.User, error) {
	var user models.User
	err := db.QueryRow(ctx, `
		SELECT user_id, username, email, password_hash, bio, image, created_at, updated_at, last_login_at, deactivated_at
		FROM users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash, &user.Bio, &user.Image,
			&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.DeactivatedAt)
	return user, err
}

// UpdateUserProfile applies the given fields and reports which ones
// actually changed value; setting a field to what it already holds is
// not a change. No change skips the write entirely.
func UpdateUserProfile(ctx context.Context, db DBTX, userID uuid.UUID, bio *string, image *string) (models.User, []string, error) {
	current, err := GetUserByID(ctx, db, userID)
	if err != nil {
		return models.User{}, nil, err
	}

	updated := make([]string, 0, 2)
	if bio != nil && *bio != current.Bio {
		updated = append(updated, "bio")
	}
	if image != nil && *image != current.Image {
		updated = append(updated, "image")
	}
	if len(updated) == 0 {
		return current, nil, nil
	}

	var user models.User
	err = db.QueryRow(ctx, `
		UPDATE users
		SET bio = COALESCE($2, bio),
			image = COALESCE($3, image),
			updated_at = now()
		WHERE user_id = $1
		RETURNING user_id, username, email, password_hash, bio, image, created_at, updated_at, last_login_at, deactivated_at
	`, userID, bio, image).
		Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash, &user.Bio, &user.Image,
			&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.DeactivatedAt)
	return user, updated, err
}

func TouchLastLogin(ctx context.Context, db DBTX, userID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE users SET last_login_at = now() WHERE user_id = $1
	`, userID)
	return err
}

func UpdatePasswordHash(ctx context.Context, db DBTX, userID uuid.UUID, passwordHash string) error {
	_, err := db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE user_id = $1
	`, userID, passwordHash)
	return err
}

func DeactivateUser(ctx context.Context, db DBTX, userID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE users SET deactivated_at = now(), updated_at = now() WHERE user_id = $1 AND deactivated_at IS NULL
	`, userID)
	return err
}

// PurgeDeactivatedBefore removes users deactivated before the cutoff.
// Used by the maintenance worker, never by request-time code.
func PurgeDeactivatedBefore(ctx context.Context, db DBTX, cutoff time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `
		DELETE FROM users WHERE deactivated_at IS NOT NULL AND deactivated_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
