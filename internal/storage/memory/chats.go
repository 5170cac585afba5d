package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
)

func cloneChat(c models.Chat) models.Chat {
	c.Participants = slices.Clone(c.Participants)
	c.UnreadCount = maps.Clone(c.UnreadCount)
	if c.LastMessage != nil {
		lm := *c.LastMessage
		c.LastMessage = &lm
	}
	return c
}

func (s *Store) CreateChat(_ context.Context, chat models.Chat) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat.ID = newID()
	chat.CreatedAt = s.now()
	chat.LastMessageTime = chat.CreatedAt
	chat.LastMessage = nil
	chat.Participants = slices.Clone(chat.Participants)
	chat.UnreadCount = make(map[string]int64, len(chat.Participants))
	for _, p := range chat.Participants {
		chat.UnreadCount[p] = 0
	}

	s.chats[chat.ID] = chat

	out := cloneChat(chat)
	return &out, nil
}

func (s *Store) ChatByID(_ context.Context, id string) (*models.Chat, error) {
	const op = "storage/memory/ChatByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := cloneChat(c)
	return &out, nil
}

func (s *Store) ChatByParticipants(_ context.Context, participants []string) (*models.Chat, error) {
	const op = "storage/memory/ChatByParticipants"

	s.mu.RLock()
	defer s.mu.RUnlock()

	want := slices.Sorted(slices.Values(participants))
	for _, c := range s.chats {
		if slices.Equal(slices.Sorted(slices.Values(c.Participants)), want) {
			out := cloneChat(c)
			return &out, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

func (s *Store) ListChats(_ context.Context, userID string, p models.ListParams) (*models.Page[models.Chat], error) {
	const op = "storage/memory/ListChats"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Chat
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			items = append(items, cloneChat(c))
		}
	}

	page, err := paginate(items, true, s.limit(p.PageSize), p.PageToken, func(c models.Chat) (time.Time, string) {
		return c.LastMessageTime, c.ID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (s *Store) AppendMessage(_ context.Context, msg models.Message) (*models.Message, error) {
	const op = "storage/memory/AppendMessage"

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[msg.ChatID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	msg.ID = ulid.Make().String()
	msg.CreatedAt = s.now()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)

	chat = cloneChat(chat)
	chat.LastMessage = &models.MessagePreview{ID: msg.ID, SenderID: msg.SenderID, Content: msg.Content}
	chat.LastMessageTime = msg.CreatedAt
	chat.UnreadCount[msg.SenderID] = 0
	s.chats[chat.ID] = chat

	return &msg, nil
}

func (s *Store) updateUnread(op, chatID, userID string, apply func(cur int64) int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok || !chat.HasParticipant(userID) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	chat = cloneChat(chat)
	chat.UnreadCount[userID] = apply(chat.UnreadCount[userID])
	s.chats[chatID] = chat

	return nil
}

func (s *Store) IncrementUnread(_ context.Context, chatID, userID string) error {
	return s.updateUnread("storage/memory/IncrementUnread", chatID, userID, func(cur int64) int64 { return cur + 1 })
}

func (s *Store) ResetUnread(_ context.Context, chatID, userID string) error {
	return s.updateUnread("storage/memory/ResetUnread", chatID, userID, func(int64) int64 { return 0 })
}

func (s *Store) ListMessages(_ context.Context, chatID string, p models.ListParams) (*models.Page[models.Message], error) {
	const op = "storage/memory/ListMessages"

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := slices.Clone(s.messages[chatID])

	page, err := paginate(items, false, s.limit(p.PageSize), p.PageToken, func(m models.Message) (time.Time, string) {
		return m.CreatedAt, m.ID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}
