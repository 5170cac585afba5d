package service

import (
	"context"
	"strings"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

// notify сохраняет in-app уведомление. Best-effort: ошибка только логируется,
// уведомления самому себе не создаются.
func (s *Service) notify(ctx context.Context, n models.Notification) {
	if n.UserID == "" || n.UserID == n.ActorID {
		return
	}

	if _, err := s.storage.CreateNotification(ctx, n); err != nil {
		log.From(ctx).Warn("notification not stored",
			"type", string(n.Type),
			"recipient_id", n.UserID,
			"entity_id", n.EntityID,
			"err", err,
		)
	}
}

// ListNotifications — уведомления текущего пользователя, сначала новые.
func (s *Service) ListNotifications(ctx context.Context, sess session.Session, p models.ListParams) (*models.Page[models.Notification], error) {
	const op = "service/notifications/ListNotifications"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}

	page, err := s.storage.ListNotifications(ctx, sess.UserID, p)
	if err != nil {
		return nil, storageErr(lg, op, "ListNotifications", err)
	}

	return page, nil
}

// MarkNotificationRead — отметить уведомление прочитанным. Чужое уведомление — ErrNotFound.
func (s *Service) MarkNotificationRead(ctx context.Context, sess session.Session, id string) error {
	const op = "service/notifications/MarkNotificationRead"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "id", id)

	if err := requireSession(lg, op, sess); err != nil {
		return err
	}
	if id == "" {
		return invalid(lg, op, "empty id")
	}

	if err := s.storage.MarkNotificationRead(ctx, sess.UserID, id); err != nil {
		return storageErr(lg, op, "MarkNotificationRead", err)
	}

	return nil
}
