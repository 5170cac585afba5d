package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

func (s *Store) CreateNotification(_ context.Context, n models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = newID()
	n.CreatedAt = s.now()
	n.Read = false
	s.notifications[n.ID] = n

	return &n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, p models.ListParams) (*models.Page[models.Notification], error) {
	const op = "storage/memory/ListNotifications"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			items = append(items, n)
		}
	}

	page, err := paginate(items, true, s.limit(p.PageSize), p.PageToken, func(n models.Notification) (time.Time, string) {
		return n.CreatedAt, n.ID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) error {
	const op = "storage/memory/MarkNotificationRead"

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	n.Read = true
	s.notifications[id] = n

	return nil
}
