package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

// CreatePostInput — публикация поста от имени текущего пользователя.
type CreatePostInput struct {
	Content   string
	MediaURLs []string
}

// ListPostsInput — лента постов; пустой AuthorID означает все посты.
type ListPostsInput struct {
	AuthorID  string
	PageSize  int32
	PageToken string
}

// CreatePost — создание поста.
//
// Валидация:
//   - content нормализуется (TrimSpace), не пуст и не длиннее limits.post_length;
//   - media_urls: не больше limits.media_urls, пустые элементы запрещены.
func (s *Service) CreatePost(ctx context.Context, sess session.Session, in CreatePostInput) (*models.Post, error) {
	const op = "service/posts/CreatePost"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, invalid(lg, op, "empty content")
	}
	if utf8.RuneCountInString(in.Content) > s.cfg.Limits.PostLength {
		return nil, invalid(lg, op, "content too long")
	}
	if len(in.MediaURLs) > s.cfg.Limits.MediaURLs {
		return nil, invalid(lg, op, "too many media urls")
	}

	media := make([]string, 0, len(in.MediaURLs))
	for _, u := range in.MediaURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			return nil, invalid(lg, op, "empty media url")
		}
		media = append(media, u)
	}

	me, err := s.ensureUser(ctx, sess)
	if err != nil {
		return nil, storageErr(lg, op, "ensureUser", err)
	}

	post, err := s.storage.CreatePost(ctx, models.Post{
		UserID:    me.ID,
		Username:  me.Username,
		Content:   in.Content,
		MediaURLs: media,
	})
	if err != nil {
		return nil, storageErr(lg, op, "CreatePost", err)
	}

	return post, nil
}

// PostByID — пост по идентификатору.
func (s *Service) PostByID(ctx context.Context, id string) (*models.Post, error) {
	const op = "service/posts/PostByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		return nil, invalid(lg, op, "empty id")
	}

	post, err := s.storage.PostByID(ctx, id)
	if err != nil {
		return nil, storageErr(lg, op, "PostByID", err)
	}

	return post, nil
}

// ListPosts — страница постов (сначала новые), опционально одного автора.
func (s *Service) ListPosts(ctx context.Context, in ListPostsInput) (*models.Page[models.Post], error) {
	const op = "service/posts/ListPosts"

	in.AuthorID = strings.TrimSpace(in.AuthorID)
	lg := log.From(ctx).With("op", op, "author_id", in.AuthorID)

	if in.PageSize < 0 {
		return nil, invalid(lg, op, "negative page_size")
	}

	page, err := s.storage.ListPosts(ctx, in.AuthorID, models.ListParams{
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		return nil, storageErr(lg, op, "ListPosts", err)
	}

	return page, nil
}

// DeletePost — удаление своего поста вместе с комментариями и закладками.
func (s *Service) DeletePost(ctx context.Context, sess session.Session, id string) error {
	const op = "service/posts/DeletePost"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return err
	}
	if id == "" {
		return invalid(lg, op, "empty id")
	}

	post, err := s.storage.PostByID(ctx, id)
	if err != nil {
		return storageErr(lg, op, "PostByID", err)
	}

	if post.UserID != sess.UserID {
		lg.Warn("not the post author")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.storage.DeletePost(ctx, id); err != nil {
		return storageErr(lg, op, "DeletePost", err)
	}

	return nil
}

// TogglePostLike — лайк/снятие лайка поста. Возвращает пост и итоговое состояние.
func (s *Service) TogglePostLike(ctx context.Context, sess session.Session, id string) (*models.Post, bool, error) {
	const op = "service/posts/TogglePostLike"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, invalid(lg, op, "empty id")
	}

	post, liked, err := s.storage.TogglePostLike(ctx, id, sess.UserID)
	if err != nil {
		return nil, false, storageErr(lg, op, "TogglePostLike", err)
	}

	s.metrics.LikeToggled("post", liked)

	if liked {
		s.notify(ctx, models.Notification{
			UserID:   post.UserID,
			ActorID:  sess.UserID,
			Type:     models.NotificationPostLike,
			EntityID: post.ID,
		})
	}

	return post, liked, nil
}

// TogglePostSave — добавить пост в закладки или убрать из них.
func (s *Service) TogglePostSave(ctx context.Context, sess session.Session, id string) (*models.Post, bool, error) {
	const op = "service/posts/TogglePostSave"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, invalid(lg, op, "empty id")
	}

	post, saved, err := s.storage.TogglePostSave(ctx, id, sess.UserID)
	if err != nil {
		return nil, false, storageErr(lg, op, "TogglePostSave", err)
	}

	return post, saved, nil
}

// SharePost — учёт репоста: счётчик shares +1.
func (s *Service) SharePost(ctx context.Context, sess session.Session, id string) (*models.Post, error) {
	const op = "service/posts/SharePost"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalid(lg, op, "empty id")
	}

	post, err := s.storage.IncrementShares(ctx, id)
	if err != nil {
		return nil, storageErr(lg, op, "IncrementShares", err)
	}

	return post, nil
}

// SavedPosts — закладки текущего пользователя, сначала последние сохранённые.
func (s *Service) SavedPosts(ctx context.Context, sess session.Session, p models.ListParams) (*models.Page[models.Post], error) {
	const op = "service/posts/SavedPosts"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if p.PageSize < 0 {
		return nil, invalid(lg, op, "negative page_size")
	}

	page, err := s.storage.ListSavedPosts(ctx, sess.UserID, p)
	if err != nil {
		return nil, storageErr(lg, op, "ListSavedPosts", err)
	}

	return page, nil
}
