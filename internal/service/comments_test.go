package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"github.com/stretchr/testify/require"
)

// TestCommentTree_OrderAndSwallowedReplies — верхний уровень DESC (ничья по id DESC),
// ответы запрашиваются по одному на комментарий, ошибка ответов даёт пустой список.
func TestCommentTree_OrderAndSwallowedReplies(t *testing.T) {
	s, ms, reg := newServiceWithMocks(t)
	ctx := context.Background()

	t1 := time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	flat := []models.Comment{
		{ID: "a", PostID: "p1", CreatedAt: t1},
		{ID: "r1", PostID: "p1", ParentID: "a", CreatedAt: t2},
		{ID: "b", PostID: "p1", CreatedAt: t2},
		{ID: "c", PostID: "p1", CreatedAt: t2},
	}
	replies := []models.Comment{{ID: "r1", PostID: "p1", ParentID: "a", CreatedAt: t2}}

	ms.EXPECT().CommentsByPost(gomock.Any(), "p1").Return(flat, nil)
	gomock.InOrder(
		ms.EXPECT().RepliesByParent(gomock.Any(), "c").Return([]models.Comment{}, nil),
		ms.EXPECT().RepliesByParent(gomock.Any(), "b").Return(nil, errors.New("boom")),
		ms.EXPECT().RepliesByParent(gomock.Any(), "a").Return(replies, nil),
	)

	tree, err := s.CommentTree(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, tree, 3)
	require.Equal(t, "c", tree[0].ID)
	require.Equal(t, "b", tree[1].ID)
	require.Equal(t, "a", tree[2].ID)
	require.NotNil(t, tree[1].Replies)
	require.Empty(t, tree[1].Replies)
	require.Equal(t, replies, tree[2].Replies)

	require.Equal(t, 1.0, counterSum(t, reg, "social_reply_fetch_failures_total"))
}

// TestCommentTree_FlatQueryFails — ошибка основного запроса и есть ошибка операции.
func TestCommentTree_FlatQueryFails(t *testing.T) {
	s, ms, _ := newServiceWithMocks(t)

	ms.EXPECT().CommentsByPost(gomock.Any(), "p1").Return(nil, errors.New("boom"))

	_, err := s.CommentTree(context.Background(), "p1")
	require.ErrorIs(t, err, ErrInternal)

	_, err = s.CommentTree(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestCommentTree_Memory — сквозная проверка порядка на in-memory хранилище.
func TestCommentTree_Memory(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	sess := newSession("alice")

	post, err := s.CreatePost(ctx, sess, CreatePostInput{Content: "post"})
	require.NoError(t, err)

	first, err := s.AddComment(ctx, sess, AddCommentInput{PostID: post.ID, Content: "first"})
	require.NoError(t, err)
	second, err := s.AddComment(ctx, sess, AddCommentInput{PostID: post.ID, Content: "second"})
	require.NoError(t, err)

	r1, err := s.AddComment(ctx, sess, AddCommentInput{PostID: post.ID, ParentID: first.ID, Content: "r1"})
	require.NoError(t, err)
	r2, err := s.AddComment(ctx, sess, AddCommentInput{PostID: post.ID, ParentID: first.ID, Content: "r2"})
	require.NoError(t, err)

	tree, err := s.CommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, second.ID, tree[0].ID)
	require.Equal(t, first.ID, tree[1].ID)
	require.Empty(t, tree[0].Replies)
	require.Len(t, tree[1].Replies, 2)
	require.Equal(t, r1.ID, tree[1].Replies[0].ID)
	require.Equal(t, r2.ID, tree[1].Replies[1].ID)

	got, err := s.PostByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), got.CommentCount)
}

// TestAddComment_Validation — пустой/длинный текст, отсутствие сессии и post_id.
func TestAddComment_Validation(t *testing.T) {
	s, _, _ := newServiceWithMocks(t)
	ctx := context.Background()
	sess := newSession("alice")

	_, err := s.AddComment(ctx, sess, AddCommentInput{PostID: "p1", Content: "   "})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AddComment(ctx, sess, AddCommentInput{PostID: "p1", Content: strings.Repeat("x", 51)})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AddComment(ctx, sess, AddCommentInput{Content: "ok"})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestAddComment_ParentChecks — родитель отсутствует, из другого поста или сам ответ.
func TestAddComment_ParentChecks(t *testing.T) {
	s, ms, _ := newServiceWithMocks(t)
	ctx := context.Background()
	sess := newSession("alice")
	post := &models.Post{ID: "p1", UserID: "owner"}

	ms.EXPECT().PostByID(gomock.Any(), "p1").Return(post, nil).Times(3)

	ms.EXPECT().CommentByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)
	_, err := s.AddComment(ctx, sess, AddCommentInput{PostID: "p1", ParentID: "missing", Content: "ok"})
	require.ErrorIs(t, err, ErrParentNotFound)

	ms.EXPECT().CommentByID(gomock.Any(), "other").Return(&models.Comment{ID: "other", PostID: "p2"}, nil)
	_, err = s.AddComment(ctx, sess, AddCommentInput{PostID: "p1", ParentID: "other", Content: "ok"})
	require.ErrorIs(t, err, ErrParentNotFound)

	ms.EXPECT().CommentByID(gomock.Any(), "reply").Return(&models.Comment{ID: "reply", PostID: "p1", ParentID: "root"}, nil)
	_, err = s.AddComment(ctx, sess, AddCommentInput{PostID: "p1", ParentID: "reply", Content: "ok"})
	require.ErrorIs(t, err, ErrMaxDepthExceeded)
}

// TestAddComment_CounterDrift — сбой счётчика не ломает создание, но учитывается.
func TestAddComment_CounterDrift(t *testing.T) {
	s, ms, reg := newServiceWithMocks(t)
	ctx := context.Background()
	sess := newSession("alice")

	ms.EXPECT().PostByID(gomock.Any(), "p1").Return(&models.Post{ID: "p1", UserID: "owner"}, nil)
	ms.EXPECT().UserByID(gomock.Any(), sess.UserID).Return(&models.User{ID: sess.UserID, Username: "alice"}, nil)
	ms.EXPECT().CreateComment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c models.Comment) (*models.Comment, error) {
			require.Equal(t, "alice", c.Username)
			require.Equal(t, "ok", c.Content)
			c.ID = "c1"
			return &c, nil
		})
	ms.EXPECT().AdjustCommentCount(gomock.Any(), "p1", int64(1)).Return(errors.New("write conflict"))
	ms.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) (*models.Notification, error) {
			require.Equal(t, "owner", n.UserID)
			require.Equal(t, models.NotificationComment, n.Type)
			return &n, nil
		})

	comm, err := s.AddComment(ctx, sess, AddCommentInput{PostID: "p1", Content: " ok "})
	require.NoError(t, err)
	require.Equal(t, "c1", comm.ID)

	require.Equal(t, 1.0, counterSum(t, reg, "social_counter_drift_total"))
}

// TestDeleteComment_CounterFailureStillDeletes — комментарий удалён, даже если счётчик не обновился.
func TestDeleteComment_CounterFailureStillDeletes(t *testing.T) {
	s, ms, reg := newServiceWithMocks(t)
	ctx := context.Background()
	sess := newSession("alice")

	ms.EXPECT().CommentByID(gomock.Any(), "c1").Return(&models.Comment{ID: "c1", PostID: "p1", UserID: sess.UserID}, nil)
	ms.EXPECT().DeleteComment(gomock.Any(), "c1").Return(nil)
	ms.EXPECT().AdjustCommentCount(gomock.Any(), "p1", int64(-1)).Return(errors.New("boom"))

	require.NoError(t, s.DeleteComment(ctx, sess, "c1"))
	require.Equal(t, 1.0, counterSum(t, reg, "social_counter_drift_total"))
}

// TestDeleteComment_Memory — удаление убирает документ и уменьшает comment_count на 1.
func TestDeleteComment_Memory(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	alice, bob := newSession("alice"), newSession("bob")

	post, err := s.CreatePost(ctx, alice, CreatePostInput{Content: "post"})
	require.NoError(t, err)
	c, err := s.AddComment(ctx, bob, AddCommentInput{PostID: post.ID, Content: "hi"})
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteComment(ctx, alice, c.ID), ErrForbidden)
	require.NoError(t, s.DeleteComment(ctx, bob, c.ID))
	require.ErrorIs(t, s.DeleteComment(ctx, bob, c.ID), ErrNotFound)

	got, err := s.PostByID(ctx, post.ID)
	require.NoError(t, err)
	require.Zero(t, got.CommentCount)

	tree, err := s.CommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Empty(t, tree)
}

// TestToggleCommentLike_TwiceRestores — два переключения возвращают исходное множество.
func TestToggleCommentLike_TwiceRestores(t *testing.T) {
	s, _, reg := newServiceWithMemory(t)
	ctx := context.Background()
	sess := newSession("alice")

	post, err := s.CreatePost(ctx, sess, CreatePostInput{Content: "post"})
	require.NoError(t, err)
	c, err := s.AddComment(ctx, sess, AddCommentInput{PostID: post.ID, Content: "hi"})
	require.NoError(t, err)

	got, liked, err := s.ToggleCommentLike(ctx, sess, c.ID)
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, []string{sess.UserID}, got.Likes)

	got, liked, err = s.ToggleCommentLike(ctx, sess, c.ID)
	require.NoError(t, err)
	require.False(t, liked)
	require.Empty(t, got.Likes)

	require.Equal(t, 2.0, counterSum(t, reg, "social_like_toggles_total"))

	_, _, err = s.ToggleCommentLike(ctx, sess, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
