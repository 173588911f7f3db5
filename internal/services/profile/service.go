package profile

import (
	"context"
	"slices"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// DefaultAllowedKeys are the top-level profile keys a game may store
var DefaultAllowedKeys = []string{"level", "preferences", "score"}

// Config holds configuration for the profile service
type Config struct {
	AllowedKeys []string
}

// DefaultConfig returns default profile configuration
func DefaultConfig() Config {
	return Config{AllowedKeys: slices.Clone(DefaultAllowedKeys)}
}

// Service is the allow-listed, merge-on-write profile store
type Service struct {
	storage storage.Storage
	allowed map[string]struct{}
}

// New creates a new profile Service
func New(storage storage.Storage, cfg Config) *Service {
	keys := cfg.AllowedKeys
	if len(keys) == 0 {
		keys = DefaultAllowedKeys
	}
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return &Service{storage: storage, allowed: allowed}
}

// AllowedKeys returns the configured allow-list in sorted order
func (s *Service) AllowedKeys() []string {
	keys := make([]string, 0, len(s.allowed))
	for k := range s.allowed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Validate returns a *model.RejectedKeysError naming every key outside the allow-list
func (s *Service) Validate(patch model.Profile) error {
	var rejected []string
	for k := range patch {
		if _, ok := s.allowed[k]; !ok {
			rejected = append(rejected, k)
		}
	}
	if len(rejected) > 0 {
		return model.NewRejectedKeysError(rejected)
	}
	return nil
}

// Read returns the identity's full profile document
func (s *Service) Read(ctx context.Context, id model.IdentityID) (model.Profile, error) {
	identity, err := s.storage.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	return identity.Profile, nil
}

// Write validates patch and shallow-merges it into the stored profile.
// Any disallowed key rejects the whole write.
func (s *Service) Write(ctx context.Context, id model.IdentityID, patch model.Profile) (model.Profile, error) {
	if err := s.Validate(patch); err != nil {
		return nil, err
	}
	return s.storage.MergeProfile(ctx, id, patch)
}
