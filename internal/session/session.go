// Package session описывает вызывающего пользователя. Сессия явно передаётся
// в каждую сервисную операцию, выполняемую от имени пользователя.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken — подпись, формат, issuer/audience или subject не прошли проверку.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия access-токена истёк.
	ErrTokenExpired = errors.New("token expired")
)

// Session — идентичность вызывающего: UserID (UUID из токена) и отображаемое имя.
type Session struct {
	UserID   string
	Username string
}

// Valid сообщает, что сессия принадлежит аутентифицированному пользователю.
func (s Session) Valid() bool { return s.UserID != "" }

type ctxKey struct{}

// Into кладёт сессию в контекст запроса (используется HTTP-слоем).
func Into(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From достаёт сессию из контекста. ok=false, если сессии нет.
func From(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.Valid()
}

// accessClaims — полезная нагрузка access-токена auth-сервиса.
type accessClaims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Verifier проверяет HS256 access-токены. Выпуск токенов в этот сервис не входит.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier создаёт проверяющего с допуском рассинхронизации часов 5s.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   5 * time.Second,
	}
}

// Verify разбирает токен и возвращает сессию.
// Имя пользователя берётся из claim username, иначе — из локальной части email.
func (v *Verifier) Verify(tokenStr string) (Session, error) {
	const op = "session.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return Session{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Session{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}

	id, err := uuid.Parse(uid)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	name := claims.Username
	if name == "" {
		name, _, _ = strings.Cut(claims.Email, "@")
	}

	return Session{UserID: id.String(), Username: name}, nil
}
