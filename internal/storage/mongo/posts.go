package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func postKey(p models.Post) (time.Time, string) { return p.CreatedAt, p.ID }

// CreatePost сохраняет пост с пустыми likes/saves и нулевыми счётчиками.
func (m *Mongo) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	const op = "storage/mongo/CreatePost"

	post.ID = primitive.NewObjectID().Hex()
	post.CreatedAt = now()
	post.MediaURLs = nonNil(post.MediaURLs)
	post.Likes = []string{}
	post.Saves = []string{}
	post.CommentCount = 0
	post.Shares = 0

	if _, err := m.posts.InsertOne(ctx, post); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &post, nil
}

// PostByID возвращает пост по идентификатору.
func (m *Mongo) PostByID(ctx context.Context, id string) (*models.Post, error) {
	const op = "storage/mongo/PostByID"

	var out models.Post
	if err := m.posts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// ListPosts — лента (или посты автора), сортировка created_at DESC, _id DESC.
func (m *Mongo) ListPosts(ctx context.Context, authorID string, p models.ListParams) (*models.Page[models.Post], error) {
	const op = "storage/mongo/ListPosts"

	filter := bson.D{}
	if authorID != "" {
		filter = append(filter, bson.E{Key: "user_id", Value: authorID})
	}

	page, err := findPage(ctx, m.posts, limitOrDefault(m.cfg, p.PageSize), pageQuery{
		filter:    filter,
		sortField: "created_at",
		desc:      true,
		params:    p,
	}, postKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// DeletePost удаляет пост, его комментарии и закладки на него.
// Удаление зависимых документов выполняется после удаления поста и без транзакции.
func (m *Mongo) DeletePost(ctx context.Context, id string) error {
	const op = "storage/mongo/DeletePost"

	res, err := m.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if _, err := m.comments.DeleteMany(ctx, bson.D{{Key: "post_id", Value: id}}); err != nil {
		return fmt.Errorf("%s: delete comments: %w", op, err)
	}

	if _, err := m.savedPosts.DeleteMany(ctx, bson.D{{Key: "post_id", Value: id}}); err != nil {
		return fmt.Errorf("%s: delete saved: %w", op, err)
	}

	return nil
}

// togglePostSet читает пост и применяет $pull или $addToSet к множеству field.
// Чтение и запись не связаны транзакцией: решение принимается по прочитанному состоянию.
func (m *Mongo) togglePostSet(ctx context.Context, postID, userID, field string) (*models.Post, bool, error) {
	var cur models.Post
	if err := m.posts.FindOne(ctx, bson.D{{Key: "_id", Value: postID}}).Decode(&cur); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, false, storage.ErrNotFound
		}

		return nil, false, err
	}

	set := cur.Likes
	if field == "saves" {
		set = cur.Saves
	}

	operator, added := "$addToSet", true
	if slices.Contains(set, userID) {
		operator, added = "$pull", false
	}

	var out models.Post
	err := m.posts.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: postID}},
		bson.D{{Key: operator, Value: bson.D{{Key: field, Value: userID}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, false, storage.ErrNotFound
		}

		return nil, false, err
	}

	return &out, added, nil
}

// TogglePostLike переключает лайк пользователя на посте.
func (m *Mongo) TogglePostLike(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	const op = "storage/mongo/TogglePostLike"

	post, liked, err := m.togglePostSet(ctx, postID, userID, "likes")
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return post, liked, nil
}

// TogglePostSave переключает закладку: posts.saves и документ saved_posts.
func (m *Mongo) TogglePostSave(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	const op = "storage/mongo/TogglePostSave"

	post, saved, err := m.togglePostSet(ctx, postID, userID, "saves")
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	id := models.SavedPostID(userID, postID)
	if saved {
		doc := models.SavedPost{ID: id, UserID: userID, PostID: postID, SavedAt: now()}
		_, err = m.savedPosts.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
	} else {
		_, err = m.savedPosts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: saved_posts: %w", op, err)
	}

	return post, saved, nil
}

// ListSavedPosts — посты из закладок, сначала недавно сохранённые.
// Закладки на удалённые посты пропускаются.
func (m *Mongo) ListSavedPosts(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Post], error) {
	const op = "storage/mongo/ListSavedPosts"

	saved, err := findPage(ctx, m.savedPosts, limitOrDefault(m.cfg, p.PageSize), pageQuery{
		filter:    bson.D{{Key: "user_id", Value: userID}},
		sortField: "saved_at",
		desc:      true,
		params:    p,
	}, func(s models.SavedPost) (time.Time, string) { return s.SavedAt, s.ID })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &models.Page[models.Post]{Items: []models.Post{}, NextPageToken: saved.NextPageToken}
	if len(saved.Items) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(saved.Items))
	for _, s := range saved.Items {
		ids = append(ids, s.PostID)
	}

	cur, err := m.posts.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, fmt.Errorf("%s: find posts: %w", op, err)
	}

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("%s: decode posts: %w", op, err)
	}

	byID := make(map[string]models.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}

	for _, id := range ids {
		if post, ok := byID[id]; ok {
			out.Items = append(out.Items, post)
		}
	}

	return out, nil
}

// IncrementShares увеличивает shares на 1.
func (m *Mongo) IncrementShares(ctx context.Context, postID string) (*models.Post, error) {
	const op = "storage/mongo/IncrementShares"

	var out models.Post
	err := m.posts.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: postID}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "shares", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// AdjustCommentCount в транзакции читает comment_count и записывает max(0, current+delta).
func (m *Mongo) AdjustCommentCount(ctx context.Context, postID string, delta int64) error {
	const op = "storage/mongo/AdjustCommentCount"

	err := m.withTx(ctx, func(sc mongodriver.SessionContext) error {
		var cur models.Post
		if err := m.posts.FindOne(sc, bson.D{{Key: "_id", Value: postID}}).Decode(&cur); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return storage.ErrNotFound
			}

			return err
		}

		next := max(cur.CommentCount+delta, 0)

		_, err := m.posts.UpdateByID(sc, postID, bson.D{
			{Key: "$set", Value: bson.D{{Key: "comment_count", Value: next}}},
		})

		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
