// Package storage описывает контракт хранилища документов social-service.
// Реализации: storage/mongo (MongoDB) и storage/memory (in-memory, для local и тестов).
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-social-network/internal/models"
)

var (
	// ErrNotFound — документ отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrConflict — конфликт уникальности (повторное создание документа).
	ErrConflict = errors.New("conflict")
)

// Users — профили и социальный граф.
// Операции над заявками в друзья атомарны: изменяются оба документа или ни один.
// Если любой из двух документов отсутствует — ErrNotFound, изменений нет.
type Users interface {
	// UpsertUser создаёт профиль или обновляет username/display_name существующего.
	// Множества друзей и заявок при обновлении не трогаются.
	UpsertUser(ctx context.Context, user models.User) (*models.User, error)
	// UserByID возвращает профиль; ErrNotFound если его нет.
	UserByID(ctx context.Context, id string) (*models.User, error)
	// UsersByIDs возвращает найденные профили, отсутствующие пропускаются.
	UsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	// SetFCMToken сохраняет push-токен устройства.
	SetFCMToken(ctx context.Context, userID, token string) error

	// SendFriendRequest: from.outgoing += to, to.incoming += from.
	SendFriendRequest(ctx context.Context, fromID, toID string) error
	// CancelFriendRequest: from.outgoing -= to, to.incoming -= from.
	CancelFriendRequest(ctx context.Context, fromID, toID string) error
	// AcceptFriendRequest (userID принимает заявку requesterID):
	// user.incoming -= requester, requester.outgoing -= user, оба становятся друзьями.
	AcceptFriendRequest(ctx context.Context, userID, requesterID string) error
	// DeclineFriendRequest: user.incoming -= requester, requester.outgoing -= user.
	DeclineFriendRequest(ctx context.Context, userID, requesterID string) error
	// RemoveFriend: user.friends -= friend, friend.friends -= user.
	RemoveFriend(ctx context.Context, userID, friendID string) error
}

// Posts — публикации, лайки, закладки и денормализованный счётчик комментариев.
type Posts interface {
	// CreatePost сохраняет пост; ID и CreatedAt выставляет хранилище.
	CreatePost(ctx context.Context, post models.Post) (*models.Post, error)
	// PostByID — ErrNotFound если поста нет.
	PostByID(ctx context.Context, id string) (*models.Post, error)
	// ListPosts — лента (authorID == "" — все авторы), сначала новые.
	ListPosts(ctx context.Context, authorID string, p models.ListParams) (*models.Page[models.Post], error)
	// DeletePost удаляет пост; ErrNotFound если его нет.
	DeletePost(ctx context.Context, id string) error

	// TogglePostLike читает пост и применяет атомарный $addToSet/$pull без транзакции.
	// liked — состояние после переключения.
	TogglePostLike(ctx context.Context, postID, userID string) (post *models.Post, liked bool, err error)
	// TogglePostSave — то же для posts.saves, плюс создание/удаление документа saved_posts.
	TogglePostSave(ctx context.Context, postID, userID string) (post *models.Post, saved bool, err error)
	// ListSavedPosts — посты из закладок пользователя, сначала недавно сохранённые.
	ListSavedPosts(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Post], error)
	// IncrementShares увеличивает счётчик репостов на 1.
	IncrementShares(ctx context.Context, postID string) (*models.Post, error)

	// AdjustCommentCount в транзакции читает comment_count и пишет max(0, current+delta).
	AdjustCommentCount(ctx context.Context, postID string, delta int64) error
}

// Comments — комментарии постов.
type Comments interface {
	// CreateComment сохраняет комментарий; ID и CreatedAt выставляет хранилище.
	CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error)
	// CommentByID — ErrNotFound если комментария нет.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	// CommentsByPost — все комментарии поста одним запросом, без упорядочивания по родителю.
	CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)
	// RepliesByParent — ответы на комментарий, сначала старые.
	RepliesByParent(ctx context.Context, parentID string) ([]models.Comment, error)
	// DeleteComment — жёсткое удаление; ErrNotFound если комментария нет.
	DeleteComment(ctx context.Context, id string) error
	// ToggleCommentLike — read-modify-write массива likes в транзакции.
	ToggleCommentLike(ctx context.Context, commentID, userID string) (comment *models.Comment, liked bool, err error)
}

// Chats — переписки, сообщения и счётчики непрочитанного.
type Chats interface {
	// CreateChat сохраняет чат с нулевыми счётчиками для всех участников.
	CreateChat(ctx context.Context, chat models.Chat) (*models.Chat, error)
	// ChatByID — ErrNotFound если чата нет.
	ChatByID(ctx context.Context, id string) (*models.Chat, error)
	// ChatByParticipants ищет чат ровно с этим набором участников; ErrNotFound если нет.
	ChatByParticipants(ctx context.Context, participants []string) (*models.Chat, error)
	// ListChats — чаты пользователя, сначала с самым свежим сообщением.
	ListChats(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Chat], error)

	// AppendMessage вставляет сообщение и обновляет у чата last_message,
	// last_message_time и обнуляет счётчик отправителя.
	AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error)
	// IncrementUnread — атомарный $inc счётчика участника на 1.
	IncrementUnread(ctx context.Context, chatID, userID string) error
	// ResetUnread безусловно выставляет счётчик участника в 0.
	ResetUnread(ctx context.Context, chatID, userID string) error
	// ListMessages — сообщения чата, сначала старые.
	ListMessages(ctx context.Context, chatID string, p models.ListParams) (*models.Page[models.Message], error)
}

// Groups — сообщества и членство.
type Groups interface {
	CreateGroup(ctx context.Context, group models.Group) (*models.Group, error)
	GroupByID(ctx context.Context, id string) (*models.Group, error)
	// ListGroupsByMember — группы, где userID состоит участником, сначала новые.
	ListGroupsByMember(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Group], error)
	// UpdateMembership применяет изменения множеств одним атомарным обновлением документа.
	UpdateMembership(ctx context.Context, groupID string, change models.MembershipChange) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

// Notifications — in-app уведомления.
type Notifications interface {
	CreateNotification(ctx context.Context, n models.Notification) (*models.Notification, error)
	// ListNotifications — уведомления получателя, сначала новые.
	ListNotifications(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Notification], error)
	// MarkNotificationRead помечает уведомление прочитанным; чужое или отсутствующее — ErrNotFound.
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// Storage — полный контракт хранилища.
type Storage interface {
	Users
	Posts
	Comments
	Chats
	Groups
	Notifications

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
