package storage

import (
	"context"

	"github.com/mcoot/gameshop/internal/model"
)

// Storage defines the interface for data persistence.
//
// All mutating operations on a single identity are atomic with respect to each
// other. Implementations return copies, callers may freely mutate results.
type Storage interface {
	// Identity operations
	CreateIdentity(ctx context.Context, identity *model.Identity) error
	GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error)
	GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error)

	// Ledger operations

	// ApplyCoins adds delta to the balance and returns the new balance.
	// A result below zero fails with model.ErrInsufficientFunds and leaves the balance unchanged.
	ApplyCoins(ctx context.Context, id model.IdentityID, delta int64) (int64, error)

	// Profile operations

	// MergeProfile shallow-merges patch into the stored profile and returns the full result
	MergeProfile(ctx context.Context, id model.IdentityID, patch model.Profile) (model.Profile, error)

	// Purchase operations

	// AppendPurchase stores the record and sets its ID
	AppendPurchase(ctx context.Context, purchase *model.Purchase) error
	ListPurchases(ctx context.Context, id model.IdentityID) ([]*model.Purchase, error)

	Ping(ctx context.Context) error
	Close() error
}
