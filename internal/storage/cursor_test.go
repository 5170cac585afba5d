package storage

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestEncodeDecodeCursor — encode/decode взаимно обратимы.
func TestEncodeDecodeCursor(t *testing.T) {
	t.Parallel()

	ts := time.Now().UTC()
	id := "01HZX0000000000000000000AB"

	gotT, gotID, err := DecodeCursor(EncodeCursor(ts, id))
	require.NoError(t, err)
	require.True(t, gotT.Equal(ts))
	require.Equal(t, id, gotID)
}

// TestDecodeCursor_Invalid — любой мусор превращается в ErrInvalidCursor.
func TestDecodeCursor_Invalid(t *testing.T) {
	t.Parallel()

	raw := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	for _, tok := range []string{"!!!", raw("nopipe"), raw("abc|id"), raw("123|")} {
		_, _, err := DecodeCursor(tok)
		require.ErrorIs(t, err, ErrInvalidCursor, tok)
	}
}

// TestPageLimit — граничные случаи и дефолт для размера страницы.
func TestPageLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int32
		want int64
	}{
		{"zero->default", 0, 10},
		{"negative->default", -5, 10},
		{"less-than-max", 25, 25},
		{"more-than-max->cap", 200, 50},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, PageLimit(tt.in, 10, 50), tt.name)
	}
}
