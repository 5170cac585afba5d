package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

// CreateChat — чат текущего пользователя с participantIDs.
// Для двух участников сначала ищется существующий чат; created=false, если он найден.
func (s *Service) CreateChat(ctx context.Context, sess session.Session, participantIDs []string) (chat *models.Chat, created bool, err error) {
	const op = "service/chats/CreateChat"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, false, err
	}

	participants := []string{sess.UserID}
	for _, id := range participantIDs {
		id = strings.TrimSpace(id)
		if _, err := uuid.Parse(id); err != nil {
			return nil, false, invalid(lg, op, "bad participant id")
		}
		if !slices.Contains(participants, id) {
			participants = append(participants, id)
		}
	}
	if len(participants) < 2 {
		return nil, false, invalid(lg, op, "not enough participants")
	}
	slices.Sort(participants)

	if _, err := s.ensureUser(ctx, sess); err != nil {
		return nil, false, storageErr(lg, op, "ensureUser", err)
	}

	users, err := s.storage.UsersByIDs(ctx, participants)
	if err != nil {
		return nil, false, storageErr(lg, op, "UsersByIDs", err)
	}
	if len(users) != len(participants) {
		return nil, false, notFound(lg, op, "participant")
	}

	if len(participants) == 2 {
		existing, err := s.storage.ChatByParticipants(ctx, participants)
		switch {
		case err == nil:
			return existing, false, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, false, storageErr(lg, op, "ChatByParticipants", err)
		}
	}

	chat, err = s.storage.CreateChat(ctx, models.Chat{Participants: participants})
	if err != nil {
		return nil, false, storageErr(lg, op, "CreateChat", err)
	}

	return chat, true, nil
}

// participantChat загружает чат и проверяет, что вызывающий в нём состоит.
func (s *Service) participantChat(ctx context.Context, lg *slog.Logger, op string, sess session.Session, chatID string) (*models.Chat, error) {
	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if chatID == "" {
		return nil, invalid(lg, op, "empty chat_id")
	}

	chat, err := s.storage.ChatByID(ctx, chatID)
	if err != nil {
		return nil, storageErr(lg, op, "ChatByID", err)
	}

	if !chat.HasParticipant(sess.UserID) {
		lg.Warn("not a chat participant")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return chat, nil
}

// ChatByID — чат по id; доступен только участникам.
func (s *Service) ChatByID(ctx context.Context, sess session.Session, chatID string) (*models.Chat, error) {
	const op = "service/chats/ChatByID"

	chatID = strings.TrimSpace(chatID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "chat_id", chatID)

	return s.participantChat(ctx, lg, op, sess, chatID)
}

// ListChats — чаты текущего пользователя, сначала с самым свежим сообщением.
func (s *Service) ListChats(ctx context.Context, sess session.Session, p models.ListParams) (*models.Page[models.Chat], error) {
	const op = "service/chats/ListChats"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if p.PageSize < 0 {
		return nil, invalid(lg, op, "negative page_size")
	}

	page, err := s.storage.ListChats(ctx, sess.UserID, p)
	if err != nil {
		return nil, storageErr(lg, op, "ListChats", err)
	}

	return page, nil
}

// SendMessage — отправка сообщения.
//
// Шаги:
//  1. AppendMessage: вставка сообщения, last_message/last_message_time, счётчик отправителя = 0;
//  2. для каждого другого участника по очереди IncrementUnread (+1).
//
// Ошибка шага 2 не прерывает цикл и не ломает операцию: она логируется
// и учитывается в social_counter_drift_total{counter="unread_count"}.
func (s *Service) SendMessage(ctx context.Context, sess session.Session, chatID, content string) (*models.Message, error) {
	const op = "service/chats/SendMessage"

	chatID = strings.TrimSpace(chatID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "chat_id", chatID)

	chat, err := s.participantChat(ctx, lg, op, sess, chatID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid(lg, op, "empty content")
	}
	if utf8.RuneCountInString(content) > s.cfg.Limits.MessageLength {
		return nil, invalid(lg, op, "content too long")
	}

	msg, err := s.storage.AppendMessage(ctx, models.Message{
		ChatID:   chat.ID,
		SenderID: sess.UserID,
		Content:  content,
	})
	if err != nil {
		return nil, storageErr(lg, op, "AppendMessage", err)
	}

	s.metrics.MessageSent()

	for _, p := range chat.Participants {
		if p == sess.UserID {
			continue
		}
		if err := s.storage.IncrementUnread(ctx, chat.ID, p); err != nil {
			lg.Warn("unread counter drift", "participant_id", p, "err", err)
			s.metrics.CounterDrift(metrics.CounterUnreadCount)
		}
	}

	return msg, nil
}

// OpenChat — пользователь открыл чат: его счётчик непрочитанных становится 0.
func (s *Service) OpenChat(ctx context.Context, sess session.Session, chatID string) error {
	const op = "service/chats/OpenChat"

	chatID = strings.TrimSpace(chatID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "chat_id", chatID)

	if _, err := s.participantChat(ctx, lg, op, sess, chatID); err != nil {
		return err
	}

	if err := s.storage.ResetUnread(ctx, chatID, sess.UserID); err != nil {
		return storageErr(lg, op, "ResetUnread", err)
	}

	return nil
}

// ListMessages — страница сообщений чата, сначала старые.
func (s *Service) ListMessages(ctx context.Context, sess session.Session, chatID string, p models.ListParams) (*models.Page[models.Message], error) {
	const op = "service/chats/ListMessages"

	chatID = strings.TrimSpace(chatID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "chat_id", chatID)

	if _, err := s.participantChat(ctx, lg, op, sess, chatID); err != nil {
		return nil, err
	}
	if p.PageSize < 0 {
		return nil, invalid(lg, op, "negative page_size")
	}

	page, err := s.storage.ListMessages(ctx, chatID, p)
	if err != nil {
		return nil, storageErr(lg, op, "ListMessages", err)
	}

	return page, nil
}
