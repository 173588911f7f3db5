package random

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Random provides identifier and token generation that can be mocked for testing
type Random interface {
	// UUID returns a random (version 4) UUID string
	UUID() string

	// Token returns size random bytes encoded as unpadded base64url
	Token(size int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// UUID returns a random UUID drawn from crypto/rand
func (r *CryptoRandom) UUID() string {
	return uuid.NewString()
}

// Token returns a cryptographically random token
func (r *CryptoRandom) Token(size int) string {
	if size <= 0 {
		return ""
	}
	buf := make([]byte, size)
	// crypto/rand.Read never returns an error
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
