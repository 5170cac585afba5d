package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

func clonePost(p models.Post) models.Post {
	p.MediaURLs = slices.Clone(p.MediaURLs)
	p.Likes = slices.Clone(p.Likes)
	p.Saves = slices.Clone(p.Saves)
	return p
}

func postKey(p models.Post) (time.Time, string) { return p.CreatedAt, p.ID }

func (s *Store) CreatePost(_ context.Context, post models.Post) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = newID()
	post.CreatedAt = s.now()
	post.MediaURLs = slices.Clone(post.MediaURLs)
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	post.Likes = []string{}
	post.Saves = []string{}
	post.CommentCount = 0
	post.Shares = 0

	s.posts[post.ID] = post

	out := clonePost(post)
	return &out, nil
}

func (s *Store) PostByID(_ context.Context, id string) (*models.Post, error) {
	const op = "storage/memory/PostByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := clonePost(p)
	return &out, nil
}

func (s *Store) ListPosts(_ context.Context, authorID string, p models.ListParams) (*models.Page[models.Post], error) {
	const op = "storage/memory/ListPosts"

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if authorID == "" || post.UserID == authorID {
			items = append(items, clonePost(post))
		}
	}

	page, err := paginate(items, true, s.limit(p.PageSize), p.PageToken, postKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	const op = "storage/memory/DeletePost"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(s.posts, id)

	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}

	for sid, sp := range s.savedPosts {
		if sp.PostID == id {
			delete(s.savedPosts, sid)
		}
	}

	return nil
}

// togglePostSet переключает членство userID во множестве, выбранном pick.
func (s *Store) togglePostSet(op, postID, userID string, pick func(*models.Post) *[]string) (*models.Post, bool, error) {
	post, ok := s.posts[postID]
	if !ok {
		return nil, false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	post = clonePost(post)
	set := pick(&post)

	added := !slices.Contains(*set, userID)
	if added {
		*set = append(*set, userID)
	} else {
		*set = pull(*set, userID)
	}

	s.posts[postID] = post

	out := clonePost(post)
	return &out, added, nil
}

func (s *Store) TogglePostLike(_ context.Context, postID, userID string) (*models.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.togglePostSet("storage/memory/TogglePostLike", postID, userID, func(p *models.Post) *[]string { return &p.Likes })
}

func (s *Store) TogglePostSave(_ context.Context, postID, userID string) (*models.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, saved, err := s.togglePostSet("storage/memory/TogglePostSave", postID, userID, func(p *models.Post) *[]string { return &p.Saves })
	if err != nil {
		return nil, false, err
	}

	id := models.SavedPostID(userID, postID)
	if saved {
		s.savedPosts[id] = models.SavedPost{ID: id, UserID: userID, PostID: postID, SavedAt: s.now()}
	} else {
		delete(s.savedPosts, id)
	}

	return post, saved, nil
}

func (s *Store) ListSavedPosts(_ context.Context, userID string, p models.ListParams) (*models.Page[models.Post], error) {
	const op = "storage/memory/ListSavedPosts"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var saved []models.SavedPost
	for _, sp := range s.savedPosts {
		if sp.UserID == userID {
			saved = append(saved, sp)
		}
	}

	page, err := paginate(saved, true, s.limit(p.PageSize), p.PageToken, func(sp models.SavedPost) (time.Time, string) {
		return sp.SavedAt, sp.ID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &models.Page[models.Post]{Items: []models.Post{}, NextPageToken: page.NextPageToken}
	for _, sp := range page.Items {
		if post, ok := s.posts[sp.PostID]; ok {
			out.Items = append(out.Items, clonePost(post))
		}
	}

	return out, nil
}

func (s *Store) IncrementShares(_ context.Context, postID string) (*models.Post, error) {
	const op = "storage/memory/IncrementShares"

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	post.Shares++
	s.posts[postID] = post

	out := clonePost(post)
	return &out, nil
}

func (s *Store) AdjustCommentCount(_ context.Context, postID string, delta int64) error {
	const op = "storage/memory/AdjustCommentCount"

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	post.CommentCount = max(post.CommentCount+delta, 0)
	s.posts[postID] = post

	return nil
}
