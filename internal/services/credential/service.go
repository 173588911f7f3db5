package credential

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameshop/internal/dependencies/clock"
	"github.com/mcoot/gameshop/internal/dependencies/random"
	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// secretBytes is the entropy of a capability secret
const secretBytes = 32

// maxSecretAttempts bounds regeneration when a generated secret collides
const maxSecretAttempts = 3

// Service handles identity registration and credential verification
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	bcryptCost int
}

// Config holds configuration for the credential service
type Config struct {
	BcryptCost int
}

// DefaultConfig returns default credential configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// New creates a new credential Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		random:     random,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new identity with a hashed password and a fresh secret.
// The returned identity carries the plaintext secret.
func (s *Service) Register(ctx context.Context, username, password string) (*model.Identity, error) {
	// Check if username exists before paying for the hash
	_, err := s.storage.GetIdentityByUsername(ctx, username)
	if err == nil {
		return nil, model.ErrDuplicateUsername
	}
	if !errors.Is(err, model.ErrIdentityNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, model.ErrPasswordTooLong
		}
		return nil, err
	}

	for range maxSecretAttempts {
		identity := &model.Identity{
			ID:           model.IdentityID(s.random.UUID()),
			Username:     username,
			PasswordHash: string(hash),
			Secret:       s.random.Token(secretBytes),
			Coins:        0,
			Profile:      model.Profile{},
			CreatedAt:    s.clock.Now(),
		}

		err := s.storage.CreateIdentity(ctx, identity)
		if errors.Is(err, model.ErrDuplicateSecret) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return identity, nil
	}
	return nil, fmt.Errorf("generate unique secret: %w", model.ErrDuplicateSecret)
}

// VerifyPassword looks up an identity by username and checks its password
func (s *Service) VerifyPassword(ctx context.Context, username, password string) (*model.Identity, error) {
	identity, err := s.storage.GetIdentityByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(identity, password) {
		return nil, model.ErrInvalidCredentials
	}
	return identity, nil
}

// VerifySecret reports whether secret matches the identity's stored secret
func (s *Service) VerifySecret(ctx context.Context, id model.IdentityID, secret string) (bool, error) {
	identity, err := s.storage.GetIdentity(ctx, id)
	if err != nil {
		return false, err
	}
	return CheckSecret(identity, secret), nil
}

// CheckPassword compares a plaintext password against the identity's bcrypt hash
func CheckPassword(identity *model.Identity, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) == nil
}

// CheckSecret compares secrets in constant time
func CheckSecret(identity *model.Identity, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(identity.Secret), []byte(secret)) == 1
}
