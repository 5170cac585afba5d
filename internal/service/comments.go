package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

// AddCommentInput — комментарий к посту или ответ на комментарий верхнего уровня.
type AddCommentInput struct {
	PostID   string
	ParentID string
	Content  string
}

// CommentTree — двухуровневое дерево комментариев поста.
//
// Шаги:
//  1. один плоский запрос CommentsByPost (ошибка = ошибка операции);
//  2. в памяти остаются комментарии верхнего уровня, created_at DESC (при равенстве id DESC);
//  3. для каждого — отдельный RepliesByParent (created_at ASC), без батчинга и кэша;
//  4. ошибка загрузки ответов проглатывается: WARN, метрика, пустой список ответов.
func (s *Service) CommentTree(ctx context.Context, postID string) ([]models.Comment, error) {
	const op = "service/comments/CommentTree"

	postID = strings.TrimSpace(postID)
	lg := log.From(ctx).With("op", op, "post_id", postID)

	if postID == "" {
		return nil, invalid(lg, op, "empty post_id")
	}

	all, err := s.storage.CommentsByPost(ctx, postID)
	if err != nil {
		return nil, storageErr(lg, op, "CommentsByPost", err)
	}

	top := make([]models.Comment, 0, len(all))
	for _, c := range all {
		if !c.IsReply() {
			top = append(top, c)
		}
	}

	sort.SliceStable(top, func(i, j int) bool {
		if !top[i].CreatedAt.Equal(top[j].CreatedAt) {
			return top[i].CreatedAt.After(top[j].CreatedAt)
		}
		return top[i].ID > top[j].ID
	})

	for i := range top {
		replies, err := s.storage.RepliesByParent(ctx, top[i].ID)
		if err != nil {
			lg.Warn("reply fetch failed", "comment_id", top[i].ID, "err", err)
			s.metrics.ReplyFetchFailed()
			replies = nil
		}
		if replies == nil {
			replies = []models.Comment{}
		}
		top[i].Replies = replies
	}

	return top, nil
}

// adjustCommentCount — второй шаг после записи комментария. Ошибка не откатывает
// первый шаг и не ломает операцию: она логируется и учитывается как дрейф счётчика.
func (s *Service) adjustCommentCount(ctx context.Context, lg *slog.Logger, postID string, delta int64) {
	if err := s.storage.AdjustCommentCount(ctx, postID, delta); err != nil {
		lg.Warn("comment counter drift", "post_id", postID, "delta", delta, "err", err)
		s.metrics.CounterDrift(metrics.CounterCommentCount)
	}
}

// AddComment — создание комментария или ответа.
//
// Валидация:
//   - post_id обязателен, пост должен существовать (ErrNotFound);
//   - content нормализуется (TrimSpace), не пуст и не длиннее limits.comment_length;
//   - parent_id (если задан) указывает на комментарий этого же поста (ErrParentNotFound),
//     и этот комментарий сам не ответ (ErrMaxDepthExceeded).
//
// После вставки comment_count поста увеличивается отдельным шагом.
func (s *Service) AddComment(ctx context.Context, sess session.Session, in AddCommentInput) (*models.Comment, error) {
	const op = "service/comments/AddComment"

	in.PostID = strings.TrimSpace(in.PostID)
	in.ParentID = strings.TrimSpace(in.ParentID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "post_id", in.PostID, "parent_id", in.ParentID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if in.PostID == "" {
		return nil, invalid(lg, op, "empty post_id")
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, invalid(lg, op, "empty content")
	}
	if utf8.RuneCountInString(in.Content) > s.cfg.Limits.CommentLength {
		return nil, invalid(lg, op, "content too long")
	}

	post, err := s.storage.PostByID(ctx, in.PostID)
	if err != nil {
		return nil, storageErr(lg, op, "PostByID", err)
	}

	var parent *models.Comment
	if in.ParentID != "" {
		parent, err = s.storage.CommentByID(ctx, in.ParentID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case err != nil:
			return nil, storageErr(lg, op, "CommentByID", err)
		}

		if parent.PostID != post.ID {
			lg.Warn("parent belongs to another post")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		}
		if parent.IsReply() {
			lg.Warn("max depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
		}
	}

	me, err := s.ensureUser(ctx, sess)
	if err != nil {
		return nil, storageErr(lg, op, "ensureUser", err)
	}

	comm, err := s.storage.CreateComment(ctx, models.Comment{
		PostID:   post.ID,
		UserID:   me.ID,
		Username: me.Username,
		Content:  in.Content,
		ParentID: in.ParentID,
	})
	if err != nil {
		return nil, storageErr(lg, op, "CreateComment", err)
	}

	s.adjustCommentCount(ctx, lg, post.ID, 1)

	n := models.Notification{
		UserID:   post.UserID,
		ActorID:  me.ID,
		Type:     models.NotificationComment,
		EntityID: comm.ID,
	}
	if parent != nil {
		n.UserID = parent.UserID
		n.Type = models.NotificationReply
	}
	s.notify(ctx, n)

	return comm, nil
}

// DeleteComment — удаление своего комментария по id и уменьшение comment_count поста.
// Ответы удалённого комментария не трогаются: в дерево они больше не попадают.
func (s *Service) DeleteComment(ctx context.Context, sess session.Session, id string) error {
	const op = "service/comments/DeleteComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return err
	}
	if id == "" {
		return invalid(lg, op, "empty id")
	}

	comm, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		return storageErr(lg, op, "CommentByID", err)
	}

	if comm.UserID != sess.UserID {
		lg.Warn("not the comment author")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.storage.DeleteComment(ctx, id); err != nil {
		return storageErr(lg, op, "DeleteComment", err)
	}

	s.adjustCommentCount(ctx, lg, comm.PostID, -1)

	return nil
}

// ToggleCommentLike — лайк/снятие лайка комментария (транзакция в сторадже).
func (s *Service) ToggleCommentLike(ctx context.Context, sess session.Session, id string) (*models.Comment, bool, error) {
	const op = "service/comments/ToggleCommentLike"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, invalid(lg, op, "empty id")
	}

	comm, liked, err := s.storage.ToggleCommentLike(ctx, id, sess.UserID)
	if err != nil {
		return nil, false, storageErr(lg, op, "ToggleCommentLike", err)
	}

	s.metrics.LikeToggled("comment", liked)

	return comm, liked, nil
}
