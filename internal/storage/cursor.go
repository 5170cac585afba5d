package storage

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EncodeCursor кодирует пару (ключ сортировки, id) в непрозрачный page_token.
func EncodeCursor(t time.Time, id string) string {
	raw := fmt.Sprintf("%d|%s", t.UTC().UnixNano(), id)

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor декодирует page_token обратно в пару ключей.
// Любая ошибка разбора — ErrInvalidCursor.
func DecodeCursor(token string) (time.Time, string, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	nanosStr, id, ok := strings.Cut(string(res), "|")
	if !ok || id == "" {
		return time.Time{}, "", fmt.Errorf("%w: bad parts", ErrInvalidCursor)
	}

	nanos, err := strconv.ParseInt(nanosStr, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return time.Unix(0, nanos).UTC(), id, nil
}

// PageLimit приводит запрошенный размер страницы к [1, maxSize]; 0 и меньше — def.
func PageLimit(pageSize, def, maxSize int32) int64 {
	lim := pageSize
	if lim <= 0 {
		lim = def
	}

	if lim > maxSize {
		lim = maxSize
	}

	return int64(lim)
}
