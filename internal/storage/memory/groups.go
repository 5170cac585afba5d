package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

func cloneGroup(g models.Group) models.Group {
	g.MemberIDs = slices.Clone(g.MemberIDs)
	g.PendingMemberIDs = slices.Clone(g.PendingMemberIDs)
	g.InvitedUserIDs = slices.Clone(g.InvitedUserIDs)
	return g
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Store) CreateGroup(_ context.Context, group models.Group) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group = cloneGroup(group)
	group.ID = newID()
	group.CreatedAt = s.now()
	group.MemberIDs = orEmpty(group.MemberIDs)
	group.PendingMemberIDs = orEmpty(group.PendingMemberIDs)
	group.InvitedUserIDs = orEmpty(group.InvitedUserIDs)

	s.groups[group.ID] = group

	out := cloneGroup(group)
	return &out, nil
}

func (s *Store) GroupByID(_ context.Context, id string) (*models.Group, error) {
	const op = "storage/memory/GroupByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := cloneGroup(g)
	return &out, nil
}

func (s *Store) ListGroupsByMember(_ context.Context, userID string, p models.ListParams) (*models.Page[models.Group], error) {
	const op = "storage/memory/ListGroupsByMember"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Group
	for _, g := range s.groups {
		if g.IsMember(userID) {
			items = append(items, cloneGroup(g))
		}
	}

	page, err := paginate(items, true, s.limit(p.PageSize), p.PageToken, func(g models.Group) (time.Time, string) {
		return g.CreatedAt, g.ID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (s *Store) UpdateMembership(_ context.Context, groupID string, ch models.MembershipChange) (*models.Group, error) {
	const op = "storage/memory/UpdateMembership"

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	g = cloneGroup(g)
	apply := func(set []string, add, remove []string) []string {
		for _, id := range add {
			set = addToSet(set, id)
		}
		for _, id := range remove {
			set = pull(set, id)
		}
		return set
	}

	g.MemberIDs = apply(g.MemberIDs, ch.AddMembers, ch.RemoveMembers)
	g.PendingMemberIDs = apply(g.PendingMemberIDs, ch.AddPending, ch.RemovePending)
	g.InvitedUserIDs = apply(g.InvitedUserIDs, ch.AddInvited, ch.RemoveInvited)
	s.groups[groupID] = g

	out := cloneGroup(g)
	return &out, nil
}

func (s *Store) DeleteGroup(_ context.Context, id string) error {
	const op = "storage/memory/DeleteGroup"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(s.groups, id)

	return nil
}
