package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

func cloneUser(u models.User) models.User {
	u.Friends = slices.Clone(u.Friends)
	u.IncomingFriendRequests = slices.Clone(u.IncomingFriendRequests)
	u.OutgoingFriendRequests = slices.Clone(u.OutgoingFriendRequests)
	return u
}

func addToSet(set []string, v string) []string {
	if slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}

func pull(set []string, v string) []string {
	return slices.DeleteFunc(set, func(x string) bool { return x == v })
}

func (s *Store) UpsertUser(_ context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	cur, ok := s.users[user.ID]
	if !ok {
		cur = models.User{
			ID:                     user.ID,
			Friends:                []string{},
			IncomingFriendRequests: []string{},
			OutgoingFriendRequests: []string{},
			CreatedAt:              ts,
		}
	}

	cur.Username = user.Username
	cur.DisplayName = user.DisplayName
	cur.UpdatedAt = ts
	s.users[cur.ID] = cur

	out := cloneUser(cur)
	return &out, nil
}

func (s *Store) UserByID(_ context.Context, id string) (*models.User, error) {
	const op = "storage/memory/UserByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := cloneUser(u)
	return &out, nil
}

func (s *Store) UsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}

	return out, nil
}

func (s *Store) SetFCMToken(_ context.Context, userID, token string) error {
	const op = "storage/memory/SetFCMToken"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u.FCMToken = token
	u.UpdatedAt = s.now()
	s.users[userID] = u

	return nil
}

// friendBatch применяет mutate к копиям обоих пользователей и сохраняет их только вместе.
func (s *Store) friendBatch(op, aID, bID string, mutate func(a, b *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, okA := s.users[aID]
	b, okB := s.users[bID]
	if !okA || !okB {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	a, b = cloneUser(a), cloneUser(b)
	mutate(&a, &b)

	ts := s.now()
	a.UpdatedAt, b.UpdatedAt = ts, ts
	s.users[aID] = a
	s.users[bID] = b

	return nil
}

func (s *Store) SendFriendRequest(_ context.Context, fromID, toID string) error {
	return s.friendBatch("storage/memory/SendFriendRequest", fromID, toID, func(from, to *models.User) {
		from.OutgoingFriendRequests = addToSet(from.OutgoingFriendRequests, to.ID)
		to.IncomingFriendRequests = addToSet(to.IncomingFriendRequests, from.ID)
	})
}

func (s *Store) CancelFriendRequest(_ context.Context, fromID, toID string) error {
	return s.friendBatch("storage/memory/CancelFriendRequest", fromID, toID, func(from, to *models.User) {
		from.OutgoingFriendRequests = pull(from.OutgoingFriendRequests, to.ID)
		to.IncomingFriendRequests = pull(to.IncomingFriendRequests, from.ID)
	})
}

func (s *Store) AcceptFriendRequest(_ context.Context, userID, requesterID string) error {
	return s.friendBatch("storage/memory/AcceptFriendRequest", userID, requesterID, func(user, requester *models.User) {
		user.IncomingFriendRequests = pull(user.IncomingFriendRequests, requester.ID)
		requester.OutgoingFriendRequests = pull(requester.OutgoingFriendRequests, user.ID)
		user.Friends = addToSet(user.Friends, requester.ID)
		requester.Friends = addToSet(requester.Friends, user.ID)
	})
}

func (s *Store) DeclineFriendRequest(_ context.Context, userID, requesterID string) error {
	return s.friendBatch("storage/memory/DeclineFriendRequest", userID, requesterID, func(user, requester *models.User) {
		user.IncomingFriendRequests = pull(user.IncomingFriendRequests, requester.ID)
		requester.OutgoingFriendRequests = pull(requester.OutgoingFriendRequests, user.ID)
	})
}

func (s *Store) RemoveFriend(_ context.Context, userID, friendID string) error {
	return s.friendBatch("storage/memory/RemoveFriend", userID, friendID, func(user, friend *models.User) {
		user.Friends = pull(user.Friends, friend.ID)
		friend.Friends = pull(friend.Friends, user.ID)
	})
}
