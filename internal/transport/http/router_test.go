package http

// Сквозные тесты REST API: chi-роутер + мидлвары + сервис поверх in-memory хранилища.
// Токены подписываются так же, как это делает auth-сервис (HS256).
//
//   go test ./internal/transport/http -v -race -count=1

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/cache"
	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/service"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage/memory"
	"github.com/pribylovaa/go-social-network/internal/transport/http/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "router-secret"
	testIssuer   = "auth-service"
	testAudience = "api-gateway"
)

type apiEnv struct {
	t       *testing.T
	handler http.Handler
	reg     *prometheus.Registry
}

type actor struct {
	id    string
	token string
}

type errEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()

	cfg := config.Config{
		Limits: config.LimitsConfig{
			Default:       20,
			Max:           100,
			CommentLength: 200,
			PostLength:    500,
			MediaURLs:     3,
			MessageLength: 200,
		},
	}

	cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := memory.New(&cfg, memory.WithClock(func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := service.New(st, cache.Noop{}, m, cfg)
	verifier := session.NewVerifier(testSecret, testIssuer, testAudience)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRouter(svc, verifier, m, Options{Logger: logger, Timeout: time.Second})

	return &apiEnv{t: t, handler: h, reg: reg}
}

// newActor — пользователь с валидным токеном; документ создаётся первым GET /users/me.
func (e *apiEnv) newActor(name string) actor {
	e.t.Helper()

	uid := uuid.NewString()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":      uid,
		"username": name,
		"sub":      uid,
		"iss":      testIssuer,
		"aud":      testAudience,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(e.t, err)

	a := actor{id: uid, token: tok}
	rr := e.do(a, http.MethodGet, "/users/me", nil)
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())

	return a
}

func (e *apiEnv) do(a actor, method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeAs[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func requireAPIError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	env := decodeAs[errEnvelope](t, rr)
	require.Equal(t, code, env.Error.Code)
	require.NotEmpty(t, env.Error.RequestID)
}

// TestAPI_RequiresBearer — без токена и с чужой подписью — 401.
func TestAPI_RequiresBearer(t *testing.T) {
	e := newAPI(t)

	rr := e.do(actor{}, http.MethodGet, "/users/me", nil)
	requireAPIError(t, rr, http.StatusUnauthorized, "unauthenticated")

	rr = e.do(actor{token: "not-a-jwt"}, http.MethodGet, "/posts", nil)
	requireAPIError(t, rr, http.StatusUnauthorized, "unauthenticated")
}

// TestAPI_Me — документ вызывающего создаётся из сессии.
func TestAPI_Me(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")

	rr := e.do(alice, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	me := decodeAs[handlers.UserResponse](t, rr)
	require.Equal(t, alice.id, me.ID)
	require.Equal(t, "alice", me.Username)
	require.Empty(t, me.Friends)

	rr = e.do(alice, http.MethodPut, "/users/me", handlers.UpdateProfileRequest{Username: "alice2", DisplayName: "Alice"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "Alice", decodeAs[handlers.UserResponse](t, rr).DisplayName)

	rr = e.do(alice, http.MethodPut, "/users/me/fcm-token", handlers.FCMTokenRequest{Token: "device-1"})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(alice, http.MethodGet, "/users/me", nil)
	require.Equal(t, "device-1", decodeAs[handlers.UserResponse](t, rr).FCMToken)
}

// TestAPI_Validation — строгий JSON, теги validate и query-параметры дают 400.
func TestAPI_Validation(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")

	rr := e.do(alice, http.MethodPost, "/posts", `{"content":"x","unknown":1}`)
	requireAPIError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = e.do(alice, http.MethodPost, "/posts", handlers.CreatePostRequest{Content: "x", MediaURLs: []string{"not a url"}})
	requireAPIError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = e.do(alice, http.MethodPost, "/chats", handlers.CreateChatRequest{ParticipantIDs: []string{"bob"}})
	requireAPIError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = e.do(alice, http.MethodPut, "/users/me", handlers.UpdateProfileRequest{Username: "   "})
	requireAPIError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = e.do(alice, http.MethodGet, "/posts?page_size=-1", nil)
	requireAPIError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = e.do(alice, http.MethodGet, "/posts?page_token=%25%25%25", nil)
	requireAPIError(t, rr, http.StatusBadRequest, "invalid_cursor")
}

// TestAPI_PostsAndComments — пост, комментарий, ответ, глубина, дерево, лайк и сохранение.
func TestAPI_PostsAndComments(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")
	bob := e.newActor("bob")

	rr := e.do(alice, http.MethodPost, "/posts", handlers.CreatePostRequest{Content: "hello", MediaURLs: []string{"https://cdn.example.com/a.png"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	post := decodeAs[handlers.PostResponse](t, rr)
	require.Equal(t, alice.id, post.UserID)

	rr = e.do(bob, http.MethodPost, "/posts/"+post.ID+"/comments", handlers.AddCommentRequest{Content: "first"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	top := decodeAs[handlers.CommentResponse](t, rr)

	rr = e.do(alice, http.MethodPost, "/posts/"+post.ID+"/comments", handlers.AddCommentRequest{Content: "reply", ParentID: top.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reply := decodeAs[handlers.CommentResponse](t, rr)
	require.Equal(t, top.ID, reply.ParentID)

	rr = e.do(bob, http.MethodPost, "/posts/"+post.ID+"/comments", handlers.AddCommentRequest{Content: "deep", ParentID: reply.ID})
	requireAPIError(t, rr, http.StatusPreconditionFailed, "max_depth_exceeded")

	rr = e.do(bob, http.MethodPost, "/posts/"+post.ID+"/comments", handlers.AddCommentRequest{Content: "orphan", ParentID: "missing"})
	requireAPIError(t, rr, http.StatusNotFound, "parent_not_found")

	rr = e.do(bob, http.MethodGet, "/posts/"+post.ID+"/comments", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	tree := decodeAs[handlers.ListResponse[handlers.CommentResponse]](t, rr)
	require.Len(t, tree.Items, 1)
	require.Len(t, tree.Items[0].Replies, 1)
	require.Equal(t, reply.ID, tree.Items[0].Replies[0].ID)

	rr = e.do(bob, http.MethodGet, "/posts/"+post.ID, nil)
	require.EqualValues(t, 2, decodeAs[handlers.PostResponse](t, rr).CommentCount)

	rr = e.do(bob, http.MethodPost, "/posts/"+post.ID+"/like", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	like := decodeAs[handlers.PostLikeResponse](t, rr)
	require.True(t, like.Liked)
	require.True(t, like.Post.Liked)
	require.Equal(t, 1, like.Post.LikesCount)

	rr = e.do(bob, http.MethodPost, "/comments/"+top.ID+"/like", nil)
	require.True(t, decodeAs[handlers.CommentLikeResponse](t, rr).Liked)
	rr = e.do(bob, http.MethodPost, "/comments/"+top.ID+"/like", nil)
	require.False(t, decodeAs[handlers.CommentLikeResponse](t, rr).Liked)

	rr = e.do(bob, http.MethodPost, "/posts/"+post.ID+"/save", nil)
	require.True(t, decodeAs[handlers.PostSaveResponse](t, rr).Saved)

	rr = e.do(bob, http.MethodGet, "/users/me/saved-posts", nil)
	saved := decodeAs[handlers.ListResponse[handlers.PostResponse]](t, rr)
	require.Len(t, saved.Items, 1)
	require.Equal(t, post.ID, saved.Items[0].ID)

	rr = e.do(bob, http.MethodPost, "/posts/"+post.ID+"/share", nil)
	require.EqualValues(t, 1, decodeAs[handlers.PostResponse](t, rr).Shares)

	rr = e.do(bob, http.MethodDelete, "/comments/"+reply.ID, nil)
	requireAPIError(t, rr, http.StatusForbidden, "forbidden")

	rr = e.do(alice, http.MethodDelete, "/comments/"+reply.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(bob, http.MethodDelete, "/posts/"+post.ID, nil)
	requireAPIError(t, rr, http.StatusForbidden, "forbidden")

	rr = e.do(alice, http.MethodDelete, "/posts/"+post.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(alice, http.MethodGet, "/posts/"+post.ID, nil)
	requireAPIError(t, rr, http.StatusNotFound, "not_found")
}

// TestAPI_Friends — заявка, принятие, список друзей и уведомления.
func TestAPI_Friends(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")
	bob := e.newActor("bob")

	rr := e.do(alice, http.MethodPost, "/users/"+bob.id+"/friend-request", nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = e.do(alice, http.MethodPost, "/users/"+bob.id+"/friend-request", nil)
	requireAPIError(t, rr, http.StatusConflict, "conflict")

	rr = e.do(bob, http.MethodGet, "/users/me", nil)
	require.Equal(t, []string{alice.id}, decodeAs[handlers.UserResponse](t, rr).IncomingFriendRequests)

	rr = e.do(bob, http.MethodGet, "/notifications", nil)
	notes := decodeAs[handlers.ListResponse[handlers.NotificationResponse]](t, rr)
	require.Len(t, notes.Items, 1)
	require.Equal(t, "friend_request", notes.Items[0].Type)
	require.False(t, notes.Items[0].Read)

	rr = e.do(bob, http.MethodPost, "/notifications/"+notes.Items[0].ID+"/read", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(bob, http.MethodPost, "/friend-requests/"+alice.id+"/accept", nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = e.do(alice, http.MethodGet, "/users/me/friends", nil)
	friends := decodeAs[handlers.ListResponse[handlers.UserResponse]](t, rr)
	require.Len(t, friends.Items, 1)
	require.Equal(t, bob.id, friends.Items[0].ID)
	require.Empty(t, friends.Items[0].FCMToken)

	rr = e.do(alice, http.MethodDelete, "/friends/"+bob.id, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(alice, http.MethodGet, "/users/"+bob.id, nil)
	require.Empty(t, decodeAs[handlers.UserResponse](t, rr).Friends)
}

// TestAPI_Chats — создание с переиспользованием, сообщения и непрочитанные.
func TestAPI_Chats(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")
	bob := e.newActor("bob")

	rr := e.do(alice, http.MethodPost, "/chats", handlers.CreateChatRequest{ParticipantIDs: []string{bob.id}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	chat := decodeAs[handlers.ChatResponse](t, rr)

	rr = e.do(bob, http.MethodPost, "/chats", handlers.CreateChatRequest{ParticipantIDs: []string{alice.id}})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, chat.ID, decodeAs[handlers.ChatResponse](t, rr).ID)

	for _, text := range []string{"hi", "how are you?"} {
		rr = e.do(alice, http.MethodPost, "/chats/"+chat.ID+"/messages", handlers.SendMessageRequest{Content: text})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr = e.do(bob, http.MethodGet, "/chats", nil)
	chats := decodeAs[handlers.ListResponse[handlers.ChatResponse]](t, rr)
	require.Len(t, chats.Items, 1)
	require.EqualValues(t, 2, chats.Items[0].UnreadCount)
	require.NotNil(t, chats.Items[0].LastMessage)
	require.Equal(t, "how are you?", chats.Items[0].LastMessage.Content)

	rr = e.do(alice, http.MethodGet, "/chats/"+chat.ID, nil)
	require.EqualValues(t, 0, decodeAs[handlers.ChatResponse](t, rr).UnreadCount)

	rr = e.do(bob, http.MethodPost, "/chats/"+chat.ID+"/open", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(bob, http.MethodGet, "/chats/"+chat.ID, nil)
	require.EqualValues(t, 0, decodeAs[handlers.ChatResponse](t, rr).UnreadCount)

	rr = e.do(bob, http.MethodGet, "/chats/"+chat.ID+"/messages", nil)
	msgs := decodeAs[handlers.ListResponse[handlers.MessageResponse]](t, rr)
	require.Len(t, msgs.Items, 2)
	require.Equal(t, "hi", msgs.Items[0].Content)

	carol := e.newActor("carol")
	rr = e.do(carol, http.MethodGet, "/chats/"+chat.ID+"/messages", nil)
	requireAPIError(t, rr, http.StatusForbidden, "forbidden")
}

// TestAPI_Groups — закрытая группа: заявка, одобрение, админ не может выйти.
func TestAPI_Groups(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")
	bob := e.newActor("bob")

	rr := e.do(alice, http.MethodPost, "/groups", handlers.CreateGroupRequest{Name: "gophers", IsPrivate: true})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	group := decodeAs[handlers.GroupResponse](t, rr)
	require.Equal(t, []string{alice.id}, group.MemberIDs)

	rr = e.do(bob, http.MethodPost, "/groups/"+group.ID+"/join", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, []string{bob.id}, decodeAs[handlers.GroupResponse](t, rr).PendingMemberIDs)

	rr = e.do(bob, http.MethodPost, "/groups/"+group.ID+"/members/"+bob.id+"/approve", nil)
	requireAPIError(t, rr, http.StatusForbidden, "forbidden")

	rr = e.do(alice, http.MethodPost, "/groups/"+group.ID+"/members/"+bob.id+"/approve", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.ElementsMatch(t, []string{alice.id, bob.id}, decodeAs[handlers.GroupResponse](t, rr).MemberIDs)

	rr = e.do(bob, http.MethodGet, "/groups", nil)
	require.Len(t, decodeAs[handlers.ListResponse[handlers.GroupResponse]](t, rr).Items, 1)

	rr = e.do(alice, http.MethodPost, "/groups/"+group.ID+"/leave", nil)
	requireAPIError(t, rr, http.StatusPreconditionFailed, "admin_cannot_leave")

	rr = e.do(bob, http.MethodPost, "/groups/"+group.ID+"/leave", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(alice, http.MethodDelete, "/groups/"+group.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(alice, http.MethodGet, "/groups/"+group.ID, nil)
	requireAPIError(t, rr, http.StatusNotFound, "not_found")
}

// TestAPI_MetricsByRoutePattern — в label route попадает шаблон, id не раздувают кардинальность.
func TestAPI_MetricsByRoutePattern(t *testing.T) {
	e := newAPI(t)
	alice := e.newActor("alice")

	e.do(alice, http.MethodGet, "/users/"+uuid.NewString(), nil)
	e.do(alice, http.MethodGet, "/users/"+uuid.NewString(), nil)

	families, err := e.reg.Gather()
	require.NoError(t, err)

	var got float64
	for _, mf := range families {
		if mf.GetName() != "social_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == "/users/{id}" && labels["code"] == "404" {
				got += m.GetCounter().GetValue()
			}
		}
	}

	require.Equal(t, 2.0, got)
}
