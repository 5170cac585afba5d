package models

import "time"

// Post — публикация пользователя (коллекция posts).
// CommentCount денормализован и обновляется отдельным шагом после вставки/удаления
// комментария, поэтому может расходиться с фактическим числом комментариев.
type Post struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Username     string    `bson:"username"`
	Content      string    `bson:"content"`
	MediaURLs    []string  `bson:"media_urls"`
	Likes        []string  `bson:"likes"`
	CommentCount int64     `bson:"comment_count"`
	Saves        []string  `bson:"saves"`
	Shares       int64     `bson:"shares"`
	CreatedAt    time.Time `bson:"created_at"`
}

// SavedPost — закладка пользователя (коллекция saved_posts), ID = "<userID>:<postID>".
type SavedPost struct {
	ID      string    `bson:"_id"`
	UserID  string    `bson:"user_id"`
	PostID  string    `bson:"post_id"`
	SavedAt time.Time `bson:"saved_at"`
}

// SavedPostID собирает детерминированный идентификатор закладки.
func SavedPostID(userID, postID string) string {
	return userID + ":" + postID
}
