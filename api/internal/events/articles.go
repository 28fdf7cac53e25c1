package events

import "github.com/google/uuid"

type ArticleCreated struct {
	ArticleID uuid.UUID `json:"article_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Slug      string    `json:"slug"`
}

func (ArticleCreated) Kind() string { return KindArticleCreated }

type ArticleUpdated struct {
	ArticleID     uuid.UUID `json:"article_id"`
	AuthorID      uuid.UUID `json:"author_id"`
	UpdatedFields []string  `json:"updated_fields"`
}

func (ArticleUpdated) Kind() string { return KindArticleUpdated }

type ArticleDeleted struct {
	ArticleID uuid.UUID `json:"article_id"`
	AuthorID  uuid.UUID `json:"author_id"`
}

func (ArticleDeleted) Kind() string { return KindArticleDeleted }

type ArticleFavorited struct {
	ArticleID uuid.UUID `json:"article_id"`
	UserID    uuid.UUID `json:"user_id"`
}

func (ArticleFavorited) Kind() string { return KindArticleFavorited }

type ArticleUnfavorited struct {
	ArticleID uuid.UUID `json:"article_id"`
	UserID    uuid.UUID `json:"user_id"`
}

func (ArticleUnfavorited) Kind() string { return KindArticleUnfavorited }

type ArticleViewIncremented struct {
	ArticleID uuid.UUID `json:"article_id"`
	Views     int64     `json:"views"`
}

func (ArticleViewIncremented) Kind() string { return KindArticleViewIncremented }
