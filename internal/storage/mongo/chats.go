package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// unreadField — путь счётчика участника в документе чата.
func unreadField(userID string) string { return "unread_count." + userID }

// CreateChat сохраняет чат с нулевыми счётчиками непрочитанного для всех участников.
func (m *Mongo) CreateChat(ctx context.Context, chat models.Chat) (*models.Chat, error) {
	const op = "storage/mongo/CreateChat"

	chat.ID = primitive.NewObjectID().Hex()
	chat.CreatedAt = now()
	chat.LastMessageTime = chat.CreatedAt
	chat.LastMessage = nil
	chat.UnreadCount = make(map[string]int64, len(chat.Participants))
	for _, p := range chat.Participants {
		chat.UnreadCount[p] = 0
	}

	if _, err := m.chats.InsertOne(ctx, chat); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &chat, nil
}

// ChatByID возвращает чат по идентификатору.
func (m *Mongo) ChatByID(ctx context.Context, id string) (*models.Chat, error) {
	const op = "storage/mongo/ChatByID"

	return m.findChat(ctx, op, bson.D{{Key: "_id", Value: id}})
}

// ChatByParticipants ищет чат с точно таким (отсортированным) набором участников.
func (m *Mongo) ChatByParticipants(ctx context.Context, participants []string) (*models.Chat, error) {
	const op = "storage/mongo/ChatByParticipants"

	return m.findChat(ctx, op, bson.D{
		{Key: "participants", Value: bson.D{{Key: "$size", Value: len(participants)}, {Key: "$all", Value: participants}}},
	})
}

func (m *Mongo) findChat(ctx context.Context, op string, filter bson.D) (*models.Chat, error) {
	var out models.Chat
	if err := m.chats.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// ListChats — чаты пользователя, last_message_time DESC, _id DESC.
func (m *Mongo) ListChats(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Chat], error) {
	const op = "storage/mongo/ListChats"

	page, err := findPage(ctx, m.chats, limitOrDefault(m.cfg, p.PageSize), pageQuery{
		filter:    bson.D{{Key: "participants", Value: userID}},
		sortField: "last_message_time",
		desc:      true,
		params:    p,
	}, func(c models.Chat) (time.Time, string) { return c.LastMessageTime, c.ID })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// AppendMessage вставляет сообщение (ID — ULID) и обновляет снимок последнего
// сообщения чата, обнуляя счётчик отправителя. Два шага без транзакции.
func (m *Mongo) AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	const op = "storage/mongo/AppendMessage"

	msg.ID = ulid.Make().String()
	msg.CreatedAt = now()

	if _, err := m.messages.InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	res, err := m.chats.UpdateByID(ctx, msg.ChatID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "last_message", Value: models.MessagePreview{ID: msg.ID, SenderID: msg.SenderID, Content: msg.Content}},
			{Key: "last_message_time", Value: msg.CreatedAt},
			{Key: unreadField(msg.SenderID), Value: int64(0)},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: update chat: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &msg, nil
}

// IncrementUnread — атомарный $inc счётчика участника.
func (m *Mongo) IncrementUnread(ctx context.Context, chatID, userID string) error {
	const op = "storage/mongo/IncrementUnread"

	return m.updateUnread(ctx, op, chatID, userID, bson.D{
		{Key: "$inc", Value: bson.D{{Key: unreadField(userID), Value: int64(1)}}},
	})
}

// ResetUnread безусловно выставляет счётчик участника в 0.
func (m *Mongo) ResetUnread(ctx context.Context, chatID, userID string) error {
	const op = "storage/mongo/ResetUnread"

	return m.updateUnread(ctx, op, chatID, userID, bson.D{
		{Key: "$set", Value: bson.D{{Key: unreadField(userID), Value: int64(0)}}},
	})
}

func (m *Mongo) updateUnread(ctx context.Context, op, chatID, userID string, update bson.D) error {
	res, err := m.chats.UpdateOne(ctx, bson.D{
		{Key: "_id", Value: chatID},
		{Key: "participants", Value: userID},
	}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListMessages — сообщения чата, created_at ASC, _id ASC.
func (m *Mongo) ListMessages(ctx context.Context, chatID string, p models.ListParams) (*models.Page[models.Message], error) {
	const op = "storage/mongo/ListMessages"

	page, err := findPage(ctx, m.messages, limitOrDefault(m.cfg, p.PageSize), pageQuery{
		filter:    bson.D{{Key: "chat_id", Value: chatID}},
		sortField: "created_at",
		params:    p,
	}, func(msg models.Message) (time.Time, string) { return msg.CreatedAt, msg.ID })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}
