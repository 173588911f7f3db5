package random

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDIsVersion4(t *testing.T) {
	r := New()
	id, err := uuid.Parse(r.UUID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
}

func TestTokenLengthAndUniqueness(t *testing.T) {
	r := New()
	seen := make(map[string]struct{})
	for range 100 {
		tok := r.Token(32)
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
		_, dup := seen[tok]
		assert.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestTokenNonPositiveSize(t *testing.T) {
	assert.Empty(t, New().Token(0))
}
