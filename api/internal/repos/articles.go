package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/models"
)

func CreateArticle(ctx context.Context, db DBTX, authorID uuid.UUID, slug string, title string, description string, body string) (models.Article, error) {
	var article models.Article
	now := time.Now().UTC()
	err := db.QueryRow(ctx, `
		INSERT INTO articles (article_id, author_id, slug, title, description, body, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
		RETURNING article_id, author_id, slug, title, description, body, views, created_at, updated_at
	`, uuid.New(), authorID, slug, title, description, body, now).
		Scan(&article.ArticleID, &article.AuthorID, &article.Slug, &article.Title, &article.Description,
			&article.Body, &article.Views, &article.CreatedAt, &article.UpdatedAt)
	return article, err
}

func GetArticleBySlug(ctx context.Context, db DBTX, slug string) (models.Article, error) {
	var article models.Article
	err := db.QueryRow(ctx, `
		SELECT article_id, author_id, slug, title, description, body, views, created_at, updated_at
		FROM articles
		WHERE slug = $1
	`, slug).
		Scan(&article.ArticleID, &article.AuthorID, &article.Slug, &article.Title, &article.Description,
			&article.Body, &article.Views, &article.CreatedAt, &article.UpdatedAt)
	return article, err
}

// UpdateArticle applies the given fields and reports which ones
// actually changed value. No change skips the write entirely.
func GetArticleByID(ctx context.Context, db DBTX, articleID uuid.UUID) (models.Article, error) {
	var article models.Article
	err := db.QueryRow(ctx, `
		SELECT article_id, author_id, slug, title, description, body, views, created_at, updated_at
		FROM articles
		WHERE article_id = $1
	`, articleID).
		Scan(&article.ArticleID, &article.AuthorID, &article.Slug, &article.Title, &article.Description,
			&article.Body, &article.Views, &article.CreatedAt, &article.UpdatedAt)
	return article, err
}

func UpdateArticle(ctx context.Context, db DBTX, articleID uuid.UUID, title *string, description *string, body *string) (models.Article, []string, error) {
	current, err := GetArticleByID(ctx, db, articleID)
	if err != nil {
		return models.Article{}, nil, err
	}

	updated := make([]string, 0, 3)
	if title != nil && *title != current.Title {
		updated = append(updated, "title")
	}
	if description != nil && *description != current.Description {
		updated = append(updated, "description")
	}
	if body != nil && *body != current.Body {
		updated = append(updated, "body")
	}
	if len(updated) == 0 {
		return current, nil, nil
	}

	var article models.Article
	err = db.QueryRow(ctx, `
		UPDATE articles
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			body = COALESCE($4, body),
			updated_at = now()
		WHERE article_id = $1
		RETURNING article_id, author_id, slug, title, description, body, views, created_at, updated_at
	`, articleID, title, description, body).
		Scan(&article.ArticleID, &article.AuthorID, &article.Slug, &article.Title, &article.Description,
			&article.Body, &article.Views, &article.CreatedAt, &article.UpdatedAt)
	return article, updated, err
}

func DeleteArticle(ctx context.Context, db DBTX, articleID uuid.UUID) error {
	_, err := db.Exec(ctx, `DELETE FROM articles WHERE article_id = $1`, articleID)
	return err
}

func IncrementArticleViews(ctx context.Context, db DBTX, articleID uuid.UUID) (int64, error) {
	var views int64
	err := db.QueryRow(ctx, `
		UPDATE articles SET views = views + 1 WHERE article_id = $1 RETURNING views
	`, articleID).Scan(&views)
	return views, err
}

func AddFavorite(ctx context.Context, db DBTX, articleID uuid.UUID, userID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO favorites (article_id, user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (article_id, user_id) DO NOTHING
	`, articleID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func RemoveFavorite(ctx context.Context, db DBTX, articleID uuid.UUID, userID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		DELETE FROM favorites WHERE article_id = $1 AND user_id = $2
	`, articleID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func CountFavorites(ctx context.Context, db DBTX, articleID uuid.UUID) (int64, error) {
	var n int64
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM favorites WHERE article_id = $1
	`, articleID).Scan(&n)
	return n, err
}
