package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/models"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/txn"
)

type ArticleService struct {
	runner *txn.Runner
	logger logx.Logger

	// popularTagThreshold is the usage count at which a tag is reported
	// as popular. Zero disables detection.
	popularTagThreshold int
}

func NewArticleService(runner *txn.Runner, logger logx.Logger, popularTagThreshold int) *ArticleService {
	return &ArticleService{runner: runner, logger: logger, popularTagThreshold: popularTagThreshold}
}

// Create writes the article and its tag links in one transaction. The
// slug gets a random suffix so identical titles never collide.
func (s *ArticleService) Create(ctx context.Context, authorID uuid.UUID, title string, description string, body string, tags []string) (models.Article, error) {
	slug := fmt.Sprintf("%s-%s", slugify(title), uuid.NewString()[:8])
	return txn.Execute(ctx, s.runner, "articles.create", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.Article, error) {
		article, err := repos.CreateArticle(ctx, uow.Tx(), authorID, slug, title, description, body)
		if err != nil {
			return models.Article{}, err
		}
		uow.Record(events.ArticleCreated{ArticleID: article.ArticleID, AuthorID: article.AuthorID, Slug: article.Slug})

		for _, name := range normalizeTags(tags) {
			if err := s.attachTag(ctx, uow, article.ArticleID, name); err != nil {
				return models.Article{}, err
			}
		}
		return article, nil
	})
}

func (s *ArticleService) attachTag(ctx context.Context, uow *txn.UnitOfWork, articleID uuid.UUID, name string) error {
	created, err := repos.EnsureTag(ctx, uow.Tx(), name)
	if err != nil {
		return err
	}
	if created {
		uow.Record(events.TagCreated{Name: name})
	}
	if err := repos.LinkArticleTag(ctx, uow.Tx(), articleID, name); err != nil {
		return err
	}
	uow.Record(events.TagUsed{Name: name, ArticleID: articleID})

	if s.popularTagThreshold > 0 {
		count, err := repos.CountTagUsage(ctx, uow.Tx(), name)
		if err != nil {
			return err
		}
		if count == int64(s.popularTagThreshold) {
			uow.Record(events.PopularTagDetected{Name: name, Count: count})
		}
	}
	return nil
}

func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (models.Article, error) {
	return txn.Execute(ctx, s.runner, "articles.get_by_slug", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.Article, error) {
		article, err := repos.GetArticleBySlug(ctx, uow.Tx(), slug)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Article{}, ErrNotFound
		}
		return article, err
	})
}

func (s *ArticleService) Update(ctx context.Context, articleID uuid.UUID, title *string, description *string, body *string) (models.Article, error) {
	return txn.Execute(ctx, s.runner, "articles.update", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.Article, error) {
		article, updated, err := repos.UpdateArticle(ctx, uow.Tx(), articleID, title, description, body)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.Article{}, ErrNotFound
			}
			return models.Article{}, err
		}
		if len(updated) > 0 {
			uow.Record(events.ArticleUpdated{ArticleID: article.ArticleID, AuthorID: article.AuthorID, UpdatedFields: updated})
		}
		return article, nil
	})
}

func (s *ArticleService) Delete(ctx context.Context, articleID uuid.UUID, authorID uuid.UUID) error {
	_, err := txn.Execute(ctx, s.runner, "articles.delete", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		if err := repos.UnlinkArticleTags(ctx, uow.Tx(), articleID); err != nil {
			return struct{}{}, err
		}
		if err := repos.DeleteArticle(ctx, uow.Tx(), articleID); err != nil {
			return struct{}{}, err
		}
		uow.Record(events.ArticleDeleted{ArticleID: articleID, AuthorID: authorID})
		return struct{}{}, nil
	})
	return err
}

// Favorite is idempotent; the event fires only when this call created
// the favorite.
func (s *ArticleService) Favorite(ctx context.Context, articleID uuid.UUID, userID uuid.UUID) error {
	_, err := txn.Execute(ctx, s.runner, "articles.favorite", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		added, err := repos.AddFavorite(ctx, uow.Tx(), articleID, userID)
		if err != nil {
			return struct{}{}, err
		}
		if added {
			uow.Record(events.ArticleFavorited{ArticleID: articleID, UserID: userID})
		}
		return struct{}{}, nil
	})
	return err
}

func (s *ArticleService) Unfavorite(ctx context.Context, articleID uuid.UUID, userID uuid.UUID) error {
	_, err := txn.Execute(ctx, s.runner, "articles.unfavorite", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		removed, err := repos.RemoveFavorite(ctx, uow.Tx(), articleID, userID)
		if err != nil {
			return struct{}{}, err
		}
		if removed {
			uow.Record(events.ArticleUnfavorited{ArticleID: articleID, UserID: userID})
		}
		return struct{}{}, nil
	})
	return err
}

func (s *ArticleService) IncrementView(ctx context.Context, articleID uuid.UUID) (int64, error) {
	return txn.Execute(ctx, s.runner, "articles.increment_view", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (int64, error) {
		views, err := repos.IncrementArticleViews(ctx, uow.Tx(), articleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		uow.Record(events.ArticleViewIncremented{ArticleID: articleID, Views: views})
		return views, nil
	})
}

// slugify lowercases the title and collapses every non-alphanumeric
// run into a single hyphen.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
