// Package service содержит бизнес-логику social-сервиса: валидацию, проверки прав,
// сборку дерева комментариев и сопровождение денормализованных счётчиков.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-social-network/internal/cache"
	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

var (
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated — операция требует сессии пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden — пользователь не владеет ресурсом или не администрирует группу.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrConflict — состояние уже такое (заявка отправлена, уже друзья, уже в группе).
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — указан parent_id, но родитель не найден в этом посте.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — ответ на ответ: дерево комментариев двухуровневое.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrAdminCannotLeave — администратор не может покинуть свою группу.
	ErrAdminCannotLeave = errors.New("admin cannot leave group")
	// ErrInternal — внутренняя ошибка (стораж/БД/и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — описывает бизнес-логику social-сервиса.
type Service struct {
	storage storage.Storage
	cache   cache.UsersCache
	metrics *metrics.Metrics
	cfg     config.Config
}

// New создает новый экземпляр Service.
// Без Redis передаётся cache.Noop{}.
func New(storage storage.Storage, cache cache.UsersCache, m *metrics.Metrics, cfg config.Config) *Service {
	return &Service{
		storage: storage,
		cache:   cache,
		metrics: m,
		cfg:     cfg,
	}
}

// requireSession отклоняет операции без аутентифицированного пользователя.
func requireSession(lg *slog.Logger, op string, sess session.Session) error {
	if !sess.Valid() {
		lg.Warn("unauthenticated call")
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	return nil
}

// storageErr переводит ошибку стораджа в сервисную. Ошибки контекста сохраняются
// как есть, чтобы транспорт различал отмену клиентом и таймаут.
func storageErr(lg *slog.Logger, op, call string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("not found", "call", call)
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrInvalidCursor):
		lg.Warn("invalid cursor", "call", call)
		return fmt.Errorf("%s: %w", op, ErrInvalidCursor)
	case errors.Is(err, storage.ErrConflict):
		lg.Warn("conflict", "call", call)
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		lg.Warn("context done", "call", call, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	default:
		lg.Error("storage error on "+call, "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}

// invalid — короткая запись для отказа по валидации.
func invalid(lg *slog.Logger, op, reason string) error {
	lg.Warn("invalid argument: " + reason)
	return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
}
