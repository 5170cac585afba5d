package models

import "time"

// NotificationType — вид in-app уведомления.
type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationComment        NotificationType = "comment"
	NotificationReply          NotificationType = "reply"
	NotificationPostLike       NotificationType = "post_like"
	NotificationGroupInvite    NotificationType = "group_invite"
)

// Notification — уведомление получателю UserID о действии ActorID над EntityID.
type Notification struct {
	ID        string           `bson:"_id"`
	UserID    string           `bson:"user_id"`
	ActorID   string           `bson:"actor_id"`
	Type      NotificationType `bson:"type"`
	EntityID  string           `bson:"entity_id"`
	Read      bool             `bson:"read"`
	CreatedAt time.Time        `bson:"created_at"`
}
