// Package models содержит доменные сущности social-service.
package models

import "time"

// Comment — комментарий к посту (коллекция comments).
// Важно:
//   - ID — hex ObjectID; PostID/UserID — строковые идентификаторы смежных сущностей;
//   - ParentID == "" — корневой комментарий, иначе ответ на корневой (глубина не больше 2);
//   - Content неизменяем после создания, меняется только Likes;
//   - Replies заполняется только в памяти при сборке дерева и не сохраняется.
type Comment struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"post_id"`
	UserID    string    `bson:"user_id"`
	Username  string    `bson:"username"`
	Content   string    `bson:"content"`
	ParentID  string    `bson:"parent_id"`
	Likes     []string  `bson:"likes"`
	CreatedAt time.Time `bson:"created_at"`

	Replies []Comment `bson:"-"`
}

// IsReply сообщает, является ли комментарий ответом.
func (c Comment) IsReply() bool { return c.ParentID != "" }
