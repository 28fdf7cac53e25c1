package repos

import (
	"context"

	"github.com/google/uuid"
)

// EnsureTag creates the tag if it does not exist yet; the boolean
// reports whether this call created it.
func EnsureTag(ctx context.Context, db DBTX, name string) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO tags (name, created_at)
		VALUES ($1, now())
		ON CONFLICT (name) DO NOTHING
	`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func LinkArticleTag(ctx context.Context, db DBTX, articleID uuid.UUID, name string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO article_tags (article_id, tag_name)
		VALUES ($1, $2)
		ON CONFLICT (article_id, tag_name) DO NOTHING
	`, articleID, name)
	return err
}

func UnlinkArticleTags(ctx context.Context, db DBTX, articleID uuid.UUID) error {
	_, err := db.Exec(ctx, `DELETE FROM article_tags WHERE article_id = $1`, articleID)
	return err
}

func CountTagUsage(ctx context.Context, db DBTX, name string) (int64, error) {
	var n int64
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM article_tags WHERE tag_name = $1
	`, name).Scan(&n)
	return n, err
}
