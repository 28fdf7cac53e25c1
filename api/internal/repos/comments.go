package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/models"
)

func CreateComment(ctx context.Context, db DBTX, articleID uuid.UUID, authorID uuid.UUID, body string) (models.Comment, error) {
	var comment models.Comment
	err := db.QueryRow(ctx, `
		INSERT INTO comments (comment_id, article_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING comment_id, article_id, author_id, body, created_at
	`, uuid.New(), articleID, authorID, body, time.Now().UTC()).
		Scan(&comment.CommentID, &comment.ArticleID, &comment.AuthorID, &comment.Body, &comment.CreatedAt)
	return comment, err
}

func DeleteComment(ctx context.Context, db DBTX, commentID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM comments WHERE comment_id = $1`, commentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func ListCommentsByArticle(ctx context.Context, db DBTX, articleID uuid.UUID, limit int) ([]models.Comment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
		SELECT comment_id, article_id, author_id, body, created_at
		FROM comments
		WHERE article_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, articleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.CommentID, &c.ArticleID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
