package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/gameshop/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued values are returned in order; once a queue is empty it falls back
// to deterministic counters so tests never see accidental collisions.
type MockRandom struct {
	mu sync.Mutex

	// UUIDResults is a queue of results to return from UUID
	UUIDResults []string
	uuidCount   int

	// TokenResults is a queue of results to return from Token
	TokenResults []string
	tokenCount   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// UUID returns the next queued result, or a generated id-N if none remaining
func (r *MockRandom) UUID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuidCount++
	if len(r.UUIDResults) > 0 {
		result := r.UUIDResults[0]
		r.UUIDResults = r.UUIDResults[1:]
		return result
	}
	return fmt.Sprintf("id-%d", r.uuidCount)
}

// Token returns the next queued result, or a generated token-N if none remaining
func (r *MockRandom) Token(size int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenCount++
	if len(r.TokenResults) > 0 {
		result := r.TokenResults[0]
		r.TokenResults = r.TokenResults[1:]
		return result
	}
	return fmt.Sprintf("token-%d", r.tokenCount)
}

// QueueUUID adds values to the UUID result queue
func (r *MockRandom) QueueUUID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UUIDResults = append(r.UUIDResults, values...)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TokenResults = append(r.TokenResults, values...)
}
