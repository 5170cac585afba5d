package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-social-network/internal/service"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/pkg/log"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

// TokenVerifier проверяет access-токен и возвращает сессию.
type TokenVerifier interface {
	Verify(token string) (session.Session, error)
}

// Auth требует заголовок "Authorization: Bearer <JWT>", проверяет токен и кладёт
// session.Session в контекст. Без валидного токена отвечает 401.
func Auth(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			token := ""
			if strings.HasPrefix(auth, prefix) {
				token = strings.TrimSpace(auth[len(prefix):])
			}

			if token == "" {
				apierrors.WriteError(w, r, fmt.Errorf("missing bearer token: %w", service.ErrUnauthenticated))
				return
			}

			sess, err := v.Verify(token)
			if err != nil {
				log.From(r.Context()).Warn("token rejected", "err", err)
				apierrors.WriteError(w, r, fmt.Errorf("%w: %w", err, service.ErrUnauthenticated))
				return
			}

			ctx := session.Into(r.Context(), sess)
			ctx = log.With(ctx, "user_id", sess.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
