package models

import "time"

// Chat — переписка нескольких участников (коллекция chats).
// Participants хранится отсортированным; UnreadCount — счётчик непрочитанных по userID.
type Chat struct {
	ID              string           `bson:"_id"`
	Participants    []string         `bson:"participants"`
	LastMessage     *MessagePreview  `bson:"last_message,omitempty"`
	LastMessageTime time.Time        `bson:"last_message_time"`
	UnreadCount     map[string]int64 `bson:"unread_count"`
	CreatedAt       time.Time        `bson:"created_at"`
}

// MessagePreview — денормализованный снимок последнего сообщения.
type MessagePreview struct {
	ID       string `bson:"id"`
	SenderID string `bson:"sender_id"`
	Content  string `bson:"content"`
}

// HasParticipant сообщает, состоит ли userID в чате.
func (c Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}

	return false
}

// Message — сообщение чата (коллекция messages). ID — ULID, упорядоченный по времени.
type Message struct {
	ID        string    `bson:"_id"`
	ChatID    string    `bson:"chat_id"`
	SenderID  string    `bson:"sender_id"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}
