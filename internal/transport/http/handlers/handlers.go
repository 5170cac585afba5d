// Package handlers — REST-хендлеры social-сервиса поверх service.Service.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/service"
	"github.com/pribylovaa/go-social-network/internal/session"

	apierrors "github.com/pribylovaa/go-social-network/internal/transport/http/errors"
)

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc      *service.Service
	validate *validator.Validate
}

func New(svc *service.Service) *Handlers {
	v := validator.New()
	_ = v.RegisterValidation("notblank", notBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handlers{svc: svc, validate: v}
}

// notBlank — строка не пуста после TrimSpace.
func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// decode читает тело строго и прогоняет теги validate.
// Любая ошибка становится service.ErrInvalidArgument.
func (h *Handlers) decode(r *http.Request, value any) error {
	if err := decodeStrict(r, value); err != nil {
		return fmt.Errorf("decode body: %w: %w", err, service.ErrInvalidArgument)
	}

	if err := h.validate.Struct(value); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("field %s failed %q: %w", verrs[0].Field(), verrs[0].Tag(), service.ErrInvalidArgument)
		}
		return fmt.Errorf("validate body: %w: %w", err, service.ErrInvalidArgument)
	}

	return nil
}

// noContent — 204 при err == nil, иначе унифицированная ошибка.
func noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parsePage читает page_size/page_token из query.
func parsePage(r *http.Request) (models.ListParams, error) {
	var p models.ListParams

	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return p, fmt.Errorf("page_size %q: %w", v, service.ErrInvalidArgument)
		}

		p.PageSize = int32(n)
	}

	p.PageToken = r.URL.Query().Get("page_token")

	return p, nil
}

// sessionFrom — сессия, положенная мидлваром Auth; без неё сервис вернёт ErrUnauthenticated.
func sessionFrom(r *http.Request) session.Session {
	sess, _ := session.From(r.Context())
	return sess
}
