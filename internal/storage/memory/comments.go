package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

func cloneComment(c models.Comment) models.Comment {
	c.Likes = slices.Clone(c.Likes)
	c.Replies = nil
	return c
}

func (s *Store) CreateComment(_ context.Context, comm models.Comment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comm.ID = newID()
	comm.CreatedAt = s.now()
	comm.Likes = []string{}
	comm.Replies = nil

	s.comments[comm.ID] = comm

	out := cloneComment(comm)
	return &out, nil
}

func (s *Store) CommentByID(_ context.Context, id string) (*models.Comment, error) {
	const op = "storage/memory/CommentByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := cloneComment(c)
	return &out, nil
}

// CommentsByPost отдаёт комментарии в порядке обхода map — упорядочивание делает вызывающий.
func (s *Store) CommentsByPost(_ context.Context, postID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, cloneComment(c))
		}
	}

	return out, nil
}

func (s *Store) RepliesByParent(_ context.Context, parentID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Comment{}
	for _, c := range s.comments {
		if c.ParentID == parentID {
			out = append(out, cloneComment(c))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (s *Store) DeleteComment(_ context.Context, id string) error {
	const op = "storage/memory/DeleteComment"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(s.comments, id)

	return nil
}

func (s *Store) ToggleCommentLike(_ context.Context, commentID, userID string) (*models.Comment, bool, error) {
	const op = "storage/memory/ToggleCommentLike"

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return nil, false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	c = cloneComment(c)
	liked := !slices.Contains(c.Likes, userID)
	if liked {
		c.Likes = append(c.Likes, userID)
	} else {
		c.Likes = pull(c.Likes, userID)
	}

	s.comments[commentID] = c

	out := cloneComment(c)
	return &out, liked, nil
}
