package events

import "github.com/google/uuid"

type CommentAdded struct {
	CommentID uuid.UUID `json:"comment_id"`
	ArticleID uuid.UUID `json:"article_id"`
	AuthorID  uuid.UUID `json:"author_id"`
}

func (CommentAdded) Kind() string { return KindCommentAdded }

type CommentDeleted struct {
	CommentID uuid.UUID `json:"comment_id"`
	ArticleID uuid.UUID `json:"article_id"`
}

func (CommentDeleted) Kind() string { return KindCommentDeleted }
