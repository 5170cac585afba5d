package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateComment сохраняет комментарий с пустым множеством лайков.
// Связь с родителем и постом проверяет сервисный слой.
func (m *Mongo) CreateComment(ctx context.Context, comm models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	comm.ID = primitive.NewObjectID().Hex()
	comm.CreatedAt = now()
	comm.Likes = []string{}
	comm.Replies = nil

	if _, err := m.comments.InsertOne(ctx, comm); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &comm, nil
}

// CommentByID возвращает комментарий по идентификатору.
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	var out models.Comment
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// CommentsByPost — плоский список всех комментариев поста без сортировки.
func (m *Mongo) CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	const op = "storage/mongo/CommentsByPost"

	return m.findComments(ctx, op, bson.D{{Key: "post_id", Value: postID}}, nil)
}

// RepliesByParent — ответы на комментарий, created_at ASC, _id ASC.
func (m *Mongo) RepliesByParent(ctx context.Context, parentID string) ([]models.Comment, error) {
	const op = "storage/mongo/RepliesByParent"

	return m.findComments(ctx, op,
		bson.D{{Key: "parent_id", Value: parentID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

func (m *Mongo) findComments(ctx context.Context, op string, filter bson.D, opts *options.FindOptions) ([]models.Comment, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	cur, err := m.comments.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}

	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	return out, nil
}

// DeleteComment удаляет документ комментария.
func (m *Mongo) DeleteComment(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteComment"

	res, err := m.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ToggleCommentLike в транзакции читает likes, добавляет или убирает userID
// и записывает массив целиком.
func (m *Mongo) ToggleCommentLike(ctx context.Context, commentID, userID string) (*models.Comment, bool, error) {
	const op = "storage/mongo/ToggleCommentLike"

	var (
		out   models.Comment
		liked bool
	)

	err := m.withTx(ctx, func(sc mongodriver.SessionContext) error {
		if err := m.comments.FindOne(sc, bson.D{{Key: "_id", Value: commentID}}).Decode(&out); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return storage.ErrNotFound
			}

			return err
		}

		likes := slices.Clone(out.Likes)
		if i := slices.Index(likes, userID); i >= 0 {
			likes = slices.Delete(likes, i, i+1)
			liked = false
		} else {
			likes = append(likes, userID)
			liked = true
		}

		if _, err := m.comments.UpdateByID(sc, commentID, bson.D{
			{Key: "$set", Value: bson.D{{Key: "likes", Value: nonNil(likes)}}},
		}); err != nil {
			return err
		}

		out.Likes = nonNil(likes)

		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return &out, liked, nil
}
