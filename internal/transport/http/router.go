// Package http собирает REST API social-сервиса на chi.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/service"
	"github.com/pribylovaa/go-social-network/internal/transport/http/handlers"
	"github.com/pribylovaa/go-social-network/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// Все маршруты требуют Bearer-токен.
func NewRouter(svc *service.Service, verifier middleware.TokenVerifier, m *metrics.Metrics, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(m),           // счётчики по шаблону маршрута
		middleware.Timeout(opts.Timeout),
		middleware.Auth(verifier), // сессия из JWT
	)

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// users
	r.Get("/users/me", h.Me)
	r.Put("/users/me", h.UpdateProfile)
	r.Put("/users/me/fcm-token", h.SetFCMToken)
	r.Get("/users/me/friends", h.Friends)
	r.Get("/users/me/saved-posts", h.SavedPosts)
	r.Get("/users/{id}", h.UserByID)

	// friends
	r.Post("/users/{id}/friend-request", h.SendFriendRequest)
	r.Delete("/users/{id}/friend-request", h.CancelFriendRequest)
	r.Post("/friend-requests/{id}/accept", h.AcceptFriendRequest)
	r.Post("/friend-requests/{id}/decline", h.DeclineFriendRequest)
	r.Delete("/friends/{id}", h.RemoveFriend)

	// posts
	r.Post("/posts", h.CreatePost)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.PostByID)
	r.Delete("/posts/{id}", h.DeletePost)
	r.Post("/posts/{id}/like", h.TogglePostLike)
	r.Post("/posts/{id}/save", h.TogglePostSave)
	r.Post("/posts/{id}/share", h.SharePost)

	// comments
	r.Get("/posts/{id}/comments", h.CommentTree)
	r.Post("/posts/{id}/comments", h.AddComment)
	r.Delete("/comments/{id}", h.DeleteComment)
	r.Post("/comments/{id}/like", h.ToggleCommentLike)

	// chats
	r.Post("/chats", h.CreateChat)
	r.Get("/chats", h.ListChats)
	r.Get("/chats/{id}", h.ChatByID)
	r.Post("/chats/{id}/messages", h.SendMessage)
	r.Get("/chats/{id}/messages", h.ListMessages)
	r.Post("/chats/{id}/open", h.OpenChat)

	// groups
	r.Post("/groups", h.CreateGroup)
	r.Get("/groups", h.ListGroups)
	r.Get("/groups/{id}", h.GroupByID)
	r.Delete("/groups/{id}", h.DeleteGroup)
	r.Post("/groups/{id}/join", h.JoinGroup)
	r.Post("/groups/{id}/leave", h.LeaveGroup)
	r.Post("/groups/{id}/invites", h.InviteUser)
	r.Delete("/groups/{id}/invites", h.DeclineInvite)
	r.Post("/groups/{id}/members/{user_id}/approve", h.ApproveMember)
	r.Post("/groups/{id}/members/{user_id}/reject", h.RejectMember)
	r.Delete("/groups/{id}/members/{user_id}", h.RemoveMember)

	// notifications
	r.Get("/notifications", h.ListNotifications)
	r.Post("/notifications/{id}/read", h.MarkNotificationRead)
}
