package services

import (
	"context"

	"github.com/google/uuid"

	"conduit-blog-platform/api/internal/events"
	"conduit-blog-platform/api/internal/models"
	"conduit-blog-platform/api/internal/repos"
	"conduit-blog-platform/shared/eventbus"
	"conduit-blog-platform/shared/logx"
	"conduit-blog-platform/shared/txn"
)

type CommentService struct {
	runner *txn.Runner
	bus    eventbus.Publisher
	logger logx.Logger
}

func NewCommentService(runner *txn.Runner, bus eventbus.Publisher, logger logx.Logger) *CommentService {
	return &CommentService{runner: runner, bus: bus, logger: logger}
}

func (s *CommentService) Add(ctx context.Context, articleID uuid.UUID, authorID uuid.UUID, body string) (models.Comment, error) {
	return txn.Execute(ctx, s.runner, "comments.add", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (models.Comment, error) {
		comment, err := repos.CreateComment(ctx, uow.Tx(), articleID, authorID, body)
		if err != nil {
			return models.Comment{}, err
		}
		uow.Record(events.CommentAdded{CommentID: comment.CommentID, ArticleID: comment.ArticleID, AuthorID: comment.AuthorID})
		return comment, nil
	})
}

func (s *CommentService) Delete(ctx context.Context, commentID uuid.UUID, articleID uuid.UUID) error {
	_, err := txn.Execute(ctx, s.runner, "comments.delete", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) (struct{}, error) {
		deleted, err := repos.DeleteComment(ctx, uow.Tx(), commentID)
		if err != nil {
			return struct{}{}, err
		}
		if deleted {
			uow.Record(events.CommentDeleted{CommentID: commentID, ArticleID: articleID})
		}
		return struct{}{}, nil
	})
	return err
}

func (s *CommentService) ListByArticle(ctx context.Context, articleID uuid.UUID, limit int) ([]models.Comment, error) {
	return txn.Execute(ctx, s.runner, "comments.list_by_article", txn.Options{}, func(ctx context.Context, uow *txn.UnitOfWork) ([]models.Comment, error) {
		return repos.ListCommentsByArticle(ctx, uow.Tx(), articleID, limit)
	})
}

// AddBulk writes all comments in one transaction through the bulk
// coordinator: either every comment lands or none does. The completion
// event is published directly after the commit, since the coordinator
// owns the unit of work.
func (s *CommentService) AddBulk(ctx context.Context, articleID uuid.UUID, authorID uuid.UUID, bodies []string) ([]models.Comment, error) {
	bulk := txn.NewBulk(s.runner)
	for _, body := range bodies {
		body := body
		bulk.Add(func(ctx context.Context, uow *txn.UnitOfWork) (any, error) {
			comment, err := repos.CreateComment(ctx, uow.Tx(), articleID, authorID, body)
			if err != nil {
				return nil, err
			}
			uow.Record(events.CommentAdded{CommentID: comment.CommentID, ArticleID: comment.ArticleID, AuthorID: comment.AuthorID})
			return comment, nil
		})
	}

	results, err := bulk.ExecuteAll(ctx)
	if err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(results))
	for _, r := range results {
		comments = append(comments, r.(models.Comment))
	}
	if len(comments) > 0 {
		s.bus.Broadcast(ctx, events.BulkOperationCompleted{Operation: "comments.add", Count: len(comments)})
	}
	return comments, nil
}
