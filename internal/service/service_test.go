package service

// Тесты сервисного слоя social-сервиса.
//
//  Проверяем:
//  - валидацию входов и проверки прав;
//  - маппинг ошибок storage -> service (NotFound / InvalidCursor / Conflict / Internal / ошибки контекста);
//  - политику «тихих» деградаций: проглоченные ошибки загрузки ответов и дрейф счётчиков;
//  - сквозные свойства на in-memory хранилище (порядок дерева, лайки, заявки в друзья, непрочитанные).
//
// Подготовка окружения:
//   # 1) Сгенерировать моки интерфейсов хранилища и кэша:
//   mockgen -source=./internal/storage/storage.go -destination=./mocks/storage.go -package=mocks
//   mockgen -source=./internal/cache/cache.go -destination=./mocks/cache.go -package=mocks
//
//   # 2) Запустить тесты:
//   go test ./internal/service -v -race -count=1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/cache"
	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"github.com/pribylovaa/go-social-network/internal/storage/memory"
	"github.com/pribylovaa/go-social-network/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// testConfig — маленькие лимиты, чтобы проверять границы.
func testConfig() config.Config {
	return config.Config{
		Limits: config.LimitsConfig{
			Default:       20,
			Max:           100,
			CommentLength: 50,
			PostLength:    100,
			MediaURLs:     2,
			MessageLength: 50,
		},
	}
}

// newServiceWithMocks — поднимает сервис с моком стораджа и свежим реестром метрик.
func newServiceWithMocks(t *testing.T) (*Service, *mocks.MockStorage, *prometheus.Registry) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ms := mocks.NewMockStorage(ctrl)
	reg := prometheus.NewRegistry()
	s := New(ms, cache.Noop{}, metrics.New(reg), testConfig())
	return s, ms, reg
}

// newServiceWithMemory — поднимает сервис поверх in-memory хранилища с тикающими часами.
func newServiceWithMemory(t *testing.T) (*Service, *memory.Store, *prometheus.Registry) {
	t.Helper()
	cfg := testConfig()
	cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := memory.New(&cfg, memory.WithClock(func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}))
	reg := prometheus.NewRegistry()
	return New(st, cache.Noop{}, metrics.New(reg), cfg), st, reg
}

// newSession — сессия со свежим UUID.
func newSession(name string) session.Session {
	return session.Session{UserID: uuid.NewString(), Username: name}
}

// mustMe — создаёт документ пользователя сессии.
func mustMe(t *testing.T, s *Service, sess session.Session) *models.User {
	t.Helper()
	u, err := s.Me(context.Background(), sess)
	require.NoError(t, err)
	return u
}

// counterSum — сумма значений всех серий семейства name.
func counterSum(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

// TestStorageErr_Mapping — ошибки стораджа транслируются в сервисные, контекстные сохраняются.
func TestStorageErr_Mapping(t *testing.T) {
	s, ms, _ := newServiceWithMocks(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"not_found", storage.ErrNotFound, ErrNotFound},
		{"invalid_cursor", storage.ErrInvalidCursor, ErrInvalidCursor},
		{"conflict", storage.ErrConflict, ErrConflict},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
		{"canceled", context.Canceled, context.Canceled},
		{"internal", errors.New("boom"), ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ms.EXPECT().PostByID(gomock.Any(), "p1").Return(nil, tc.in)
			_, err := s.PostByID(ctx, "p1")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// TestRequireSession — операции от имени пользователя без сессии отклоняются до стораджа.
func TestRequireSession(t *testing.T) {
	s, _, _ := newServiceWithMocks(t)
	ctx := context.Background()
	var anon session.Session

	_, err := s.Me(ctx, anon)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.CreatePost(ctx, anon, CreatePostInput{Content: "x"})
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.ErrorIs(t, s.SendFriendRequest(ctx, anon, uuid.NewString()), ErrUnauthenticated)
	require.ErrorIs(t, s.OpenChat(ctx, anon, "c1"), ErrUnauthenticated)
	require.ErrorIs(t, s.LeaveGroup(ctx, anon, "g1"), ErrUnauthenticated)
}
