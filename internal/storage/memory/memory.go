// Package memory реализует storage.Storage в памяти процесса.
// Все операции выполняются под одним мьютексом, поэтому батчи и read-modify-write
// атомарны так же, как транзакции в MongoDB. Используется для db.driver=memory и в тестах.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

// Store — in-memory хранилище. Наружу отдаются копии документов.
type Store struct {
	mu            sync.RWMutex
	limits        config.LimitsConfig
	now           func() time.Time
	users         map[string]models.User
	posts         map[string]models.Post
	savedPosts    map[string]models.SavedPost
	comments      map[string]models.Comment
	chats         map[string]models.Chat
	messages      map[string][]models.Message // chatID -> сообщения в порядке вставки
	groups        map[string]models.Group
	notifications map[string]models.Notification
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени (детерминированные тесты).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New создаёт пустое хранилище с лимитами пагинации из конфигурации.
func New(cfg *config.Config, opts ...Option) *Store {
	s := &Store{
		limits:        cfg.Limits,
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[string]models.User),
		posts:         make(map[string]models.Post),
		savedPosts:    make(map[string]models.SavedPost),
		comments:      make(map[string]models.Comment),
		chats:         make(map[string]models.Chat),
		messages:      make(map[string][]models.Message),
		groups:        make(map[string]models.Group),
		notifications: make(map[string]models.Notification),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Close ничего не освобождает.
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) limit(pageSize int32) int64 {
	return storage.PageLimit(pageSize, s.limits.Default, s.limits.Max)
}

func newID() string { return uuid.NewString() }

// paginate режет отсортированный по (key, id) срез на страницу после курсора.
func paginate[T any](items []T, desc bool, limit int64, token string, key func(T) (time.Time, string)) (*models.Page[T], error) {
	less := func(a, b T) bool {
		ta, ia := key(a)
		tb, ib := key(b)
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return ia < ib
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})

	if strings.TrimSpace(token) != "" {
		ct, cid, err := storage.DecodeCursor(token)
		if err != nil {
			return nil, err
		}

		after := func(it T) bool {
			t, id := key(it)
			if desc {
				return t.Before(ct) || (t.Equal(ct) && id < cid)
			}
			return t.After(ct) || (t.Equal(ct) && id > cid)
		}

		start := len(items)
		for i, it := range items {
			if after(it) {
				start = i
				break
			}
		}
		items = items[start:]
	}

	if items == nil {
		items = []T{}
	}

	page := &models.Page[T]{Items: items}
	if int64(len(items)) > limit {
		page.Items = items[:limit]
		t, id := key(page.Items[limit-1])
		page.NextPageToken = storage.EncodeCursor(t, id)
	}

	return page, nil
}
