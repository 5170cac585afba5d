package models

import "time"

// User — профиль и социальный граф пользователя (коллекция users).
// ID совпадает с subject access-токена. Friends/IncomingFriendRequests/OutgoingFriendRequests —
// множества, хранящиеся массивами; двусторонние изменения выполняются одним батчем.
type User struct {
	ID                     string    `bson:"_id" json:"id"`
	Username               string    `bson:"username" json:"username"`
	DisplayName            string    `bson:"display_name" json:"display_name"`
	Friends                []string  `bson:"friends" json:"friends"`
	IncomingFriendRequests []string  `bson:"incoming_friend_requests" json:"incoming_friend_requests"`
	OutgoingFriendRequests []string  `bson:"outgoing_friend_requests" json:"outgoing_friend_requests"`
	FCMToken               string    `bson:"fcm_token" json:"fcm_token"`
	CreatedAt              time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time `bson:"updated_at" json:"updated_at"`
}
