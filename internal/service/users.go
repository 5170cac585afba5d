package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

const maxUsernameLength = 64

// UpdateProfileInput — изменяемые поля профиля.
type UpdateProfileInput struct {
	Username    string
	DisplayName string
}

// cachedUser читает пользователя через кэш (cache-aside). Сбой Redis не ломает чтение.
func (s *Service) cachedUser(ctx context.Context, lg *slog.Logger, id string) (*models.User, error) {
	if u, ok, err := s.cache.Get(ctx, id); err != nil {
		lg.Warn("users cache get failed", "user_id", id, "err", err)
	} else if ok {
		return u, nil
	}

	u, err := s.storage.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, u); err != nil {
		lg.Warn("users cache set failed", "user_id", id, "err", err)
	}

	return u, nil
}

// invalidateUsers сбрасывает кэш после изменения документов пользователей.
func (s *Service) invalidateUsers(ctx context.Context, lg *slog.Logger, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		lg.Warn("users cache invalidate failed", "user_ids", ids, "err", err)
	}
}

// ensureUser возвращает документ вызывающего, создавая его при первом обращении
// с именем из токена. Читает мимо кэша: дальше по нему принимаются решения.
func (s *Service) ensureUser(ctx context.Context, sess session.Session) (*models.User, error) {
	u, err := s.storage.UserByID(ctx, sess.UserID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	username := sess.Username
	if username == "" {
		username = sess.UserID
	}

	return s.storage.UpsertUser(ctx, models.User{ID: sess.UserID, Username: username})
}

// Me — документ текущего пользователя (создаётся при первом обращении).
func (s *Service) Me(ctx context.Context, sess session.Session) (*models.User, error) {
	const op = "service/users/Me"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}

	if u, ok, err := s.cache.Get(ctx, sess.UserID); err == nil && ok {
		return u, nil
	}

	u, err := s.ensureUser(ctx, sess)
	if err != nil {
		return nil, storageErr(lg, op, "ensureUser", err)
	}

	if err := s.cache.Set(ctx, u); err != nil {
		lg.Warn("users cache set failed", "err", err)
	}

	return u, nil
}

// UpdateProfile — upsert профиля текущего пользователя.
//
// Валидация:
//   - username нормализуется (TrimSpace), не пуст и не длиннее 64 символов;
//   - display_name не длиннее 64 символов.
func (s *Service) UpdateProfile(ctx context.Context, sess session.Session, in UpdateProfileInput) (*models.User, error) {
	const op = "service/users/UpdateProfile"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Username == "" || utf8.RuneCountInString(in.Username) > maxUsernameLength {
		return nil, invalid(lg, op, "bad username")
	}
	if utf8.RuneCountInString(in.DisplayName) > maxUsernameLength {
		return nil, invalid(lg, op, "bad display_name")
	}

	u, err := s.storage.UpsertUser(ctx, models.User{
		ID:          sess.UserID,
		Username:    in.Username,
		DisplayName: in.DisplayName,
	})
	if err != nil {
		return nil, storageErr(lg, op, "UpsertUser", err)
	}

	s.invalidateUsers(ctx, lg, sess.UserID)

	return u, nil
}

// SetFCMToken сохраняет push-токен устройства. Доставка push в сервис не входит.
func (s *Service) SetFCMToken(ctx context.Context, sess session.Session, token string) error {
	const op = "service/users/SetFCMToken"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return invalid(lg, op, "empty token")
	}

	if _, err := s.ensureUser(ctx, sess); err != nil {
		return storageErr(lg, op, "ensureUser", err)
	}

	if err := s.storage.SetFCMToken(ctx, sess.UserID, token); err != nil {
		return storageErr(lg, op, "SetFCMToken", err)
	}

	s.invalidateUsers(ctx, lg, sess.UserID)

	return nil
}

// UserByID — профиль пользователя по идентификатору (UUID).
func (s *Service) UserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "service/users/UserByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid(lg, op, "bad user id")
	}

	u, err := s.cachedUser(ctx, lg, id)
	if err != nil {
		return nil, storageErr(lg, op, "UserByID", err)
	}

	return u, nil
}

// Friends — документы друзей текущего пользователя.
func (s *Service) Friends(ctx context.Context, sess session.Session) ([]models.User, error) {
	const op = "service/users/Friends"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}

	me, err := s.cachedUser(ctx, lg, sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.User{}, nil
		}
		return nil, storageErr(lg, op, "UserByID", err)
	}

	if len(me.Friends) == 0 {
		return []models.User{}, nil
	}

	friends, err := s.storage.UsersByIDs(ctx, me.Friends)
	if err != nil {
		return nil, storageErr(lg, op, "UsersByIDs", err)
	}

	return friends, nil
}

// notFound — отказ ранней проверки существования.
func notFound(lg *slog.Logger, op, what string) error {
	lg.Warn(what + " not found")
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}
