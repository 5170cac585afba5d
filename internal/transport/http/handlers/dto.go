package handlers

import (
	"slices"

	"github.com/pribylovaa/go-social-network/internal/models"
)

// Все времена в ответах — Unix milliseconds UTC.

type UserResponse struct {
	ID                     string   `json:"id"`
	Username               string   `json:"username"`
	DisplayName            string   `json:"display_name"`
	Friends                []string `json:"friends"`
	IncomingFriendRequests []string `json:"incoming_friend_requests"`
	OutgoingFriendRequests []string `json:"outgoing_friend_requests"`
	FCMToken               string   `json:"fcm_token,omitempty"` // только в /users/me
	CreatedAt              int64    `json:"created_at"`
	UpdatedAt              int64    `json:"updated_at"`
}

type PostResponse struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Username     string   `json:"username"`
	Content      string   `json:"content"`
	MediaURLs    []string `json:"media_urls"`
	Likes        []string `json:"likes"`
	LikesCount   int      `json:"likes_count"`
	Liked        bool     `json:"liked"`
	Saved        bool     `json:"saved"`
	CommentCount int64    `json:"comment_count"`
	Shares       int64    `json:"shares"`
	CreatedAt    int64    `json:"created_at"`
}

type CommentResponse struct {
	ID         string            `json:"id"`
	PostID     string            `json:"post_id"`
	ParentID   string            `json:"parent_id,omitempty"` // "" — верхний уровень
	UserID     string            `json:"user_id"`
	Username   string            `json:"username"`
	Content    string            `json:"content"`
	Likes      []string          `json:"likes"`
	LikesCount int               `json:"likes_count"`
	CreatedAt  int64             `json:"created_at"`
	Replies    []CommentResponse `json:"replies,omitempty"`
}

type MessagePreviewResponse struct {
	ID       string `json:"id"`
	SenderID string `json:"sender_id"`
	Content  string `json:"content"`
}

type ChatResponse struct {
	ID              string                  `json:"id"`
	Participants    []string                `json:"participants"`
	LastMessage     *MessagePreviewResponse `json:"last_message,omitempty"`
	LastMessageTime int64                   `json:"last_message_time"`
	UnreadCount     int64                   `json:"unread_count"` // счётчик вызывающего
	CreatedAt       int64                   `json:"created_at"`
}

type MessageResponse struct {
	ID        string `json:"id"` // ULID
	ChatID    string `json:"chat_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

type GroupResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	AdminID          string   `json:"admin_id"`
	MemberIDs        []string `json:"member_ids"`
	PendingMemberIDs []string `json:"pending_member_ids"`
	InvitedUserIDs   []string `json:"invited_user_ids"`
	IsPrivate        bool     `json:"is_private"`
	CreatedAt        int64    `json:"created_at"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Type      string `json:"type"`
	EntityID  string `json:"entity_id"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
}

// ListResponse — страница с курсором; пустой next_page_token означает конец выдачи.
type ListResponse[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

type PostLikeResponse struct {
	Liked bool         `json:"liked"`
	Post  PostResponse `json:"post"`
}

type PostSaveResponse struct {
	Saved bool         `json:"saved"`
	Post  PostResponse `json:"post"`
}

type CommentLikeResponse struct {
	Liked   bool            `json:"liked"`
	Comment CommentResponse `json:"comment"`
}

// Запросы.

type UpdateProfileRequest struct {
	Username    string `json:"username" validate:"required,notblank"`
	DisplayName string `json:"display_name"`
}

type FCMTokenRequest struct {
	Token string `json:"token" validate:"required,notblank"`
}

type CreatePostRequest struct {
	Content   string   `json:"content"`
	MediaURLs []string `json:"media_urls" validate:"omitempty,dive,url"`
}

type AddCommentRequest struct {
	Content  string `json:"content" validate:"required,notblank"`
	ParentID string `json:"parent_id,omitempty"` // если задан — ответ
}

type CreateChatRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,notblank"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

type InviteRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// Конвертеры из доменных моделей.

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func userFromModel(u *models.User, self bool) UserResponse {
	out := UserResponse{
		ID:                     u.ID,
		Username:               u.Username,
		DisplayName:            u.DisplayName,
		Friends:                orEmpty(u.Friends),
		IncomingFriendRequests: orEmpty(u.IncomingFriendRequests),
		OutgoingFriendRequests: orEmpty(u.OutgoingFriendRequests),
		CreatedAt:              u.CreatedAt.UnixMilli(),
		UpdatedAt:              u.UpdatedAt.UnixMilli(),
	}
	if self {
		out.FCMToken = u.FCMToken
	}
	return out
}

func postFromModel(p *models.Post, viewerID string) PostResponse {
	return PostResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Username:     p.Username,
		Content:      p.Content,
		MediaURLs:    orEmpty(p.MediaURLs),
		Likes:        orEmpty(p.Likes),
		LikesCount:   len(p.Likes),
		Liked:        slices.Contains(p.Likes, viewerID),
		Saved:        slices.Contains(p.Saves, viewerID),
		CommentCount: p.CommentCount,
		Shares:       p.Shares,
		CreatedAt:    p.CreatedAt.UnixMilli(),
	}
}

func commentFromModel(c *models.Comment) CommentResponse {
	out := CommentResponse{
		ID:         c.ID,
		PostID:     c.PostID,
		ParentID:   c.ParentID,
		UserID:     c.UserID,
		Username:   c.Username,
		Content:    c.Content,
		Likes:      orEmpty(c.Likes),
		LikesCount: len(c.Likes),
		CreatedAt:  c.CreatedAt.UnixMilli(),
	}
	for i := range c.Replies {
		out.Replies = append(out.Replies, commentFromModel(&c.Replies[i]))
	}
	return out
}

func chatFromModel(c *models.Chat, viewerID string) ChatResponse {
	out := ChatResponse{
		ID:              c.ID,
		Participants:    orEmpty(c.Participants),
		LastMessageTime: c.LastMessageTime.UnixMilli(),
		UnreadCount:     c.UnreadCount[viewerID],
		CreatedAt:       c.CreatedAt.UnixMilli(),
	}
	if c.LastMessage != nil {
		out.LastMessage = &MessagePreviewResponse{
			ID:       c.LastMessage.ID,
			SenderID: c.LastMessage.SenderID,
			Content:  c.LastMessage.Content,
		}
	}
	return out
}

func messageFromModel(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
}

func groupFromModel(g *models.Group) GroupResponse {
	return GroupResponse{
		ID:               g.ID,
		Name:             g.Name,
		Description:      g.Description,
		AdminID:          g.AdminID,
		MemberIDs:        orEmpty(g.MemberIDs),
		PendingMemberIDs: orEmpty(g.PendingMemberIDs),
		InvitedUserIDs:   orEmpty(g.InvitedUserIDs),
		IsPrivate:        g.IsPrivate,
		CreatedAt:        g.CreatedAt.UnixMilli(),
	}
}

func notificationFromModel(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		ActorID:   n.ActorID,
		Type:      string(n.Type),
		EntityID:  n.EntityID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}
}

// listFrom конвертирует страницу моделей; items всегда не nil.
func listFrom[M, R any](p *models.Page[M], conv func(*M) R) ListResponse[R] {
	out := ListResponse[R]{Items: make([]R, 0, len(p.Items)), NextPageToken: p.NextPageToken}
	for i := range p.Items {
		out.Items = append(out.Items, conv(&p.Items[i]))
	}
	return out
}
