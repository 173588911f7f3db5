package ledger

import (
	"context"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// Service owns coin balances. Atomicity of each change is delegated to storage.
type Service struct {
	storage storage.Storage
}

// New creates a new ledger Service
func New(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

// Balance returns the current coin balance of an identity
func (s *Service) Balance(ctx context.Context, id model.IdentityID) (int64, error) {
	identity, err := s.storage.GetIdentity(ctx, id)
	if err != nil {
		return 0, err
	}
	return identity.Coins, nil
}

// Apply adds delta (negative to deduct) and returns the new balance.
// A deduction larger than the balance fails with model.ErrInsufficientFunds
// and leaves the balance unchanged.
func (s *Service) Apply(ctx context.Context, id model.IdentityID, delta int64) (int64, error) {
	return s.storage.ApplyCoins(ctx, id, delta)
}
