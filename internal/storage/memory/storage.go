package memory

import (
	"context"
	"math"
	"sync"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	identities    map[model.IdentityID]*model.Identity
	usernameIndex map[string]model.IdentityID
	secretIndex   map[string]model.IdentityID
	purchases     map[model.IdentityID][]*model.Purchase
	nextPurchase  model.PurchaseID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities:    make(map[model.IdentityID]*model.Identity),
		usernameIndex: make(map[string]model.IdentityID),
		secretIndex:   make(map[string]model.IdentityID),
		purchases:     make(map[model.IdentityID][]*model.Purchase),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernameIndex[identity.Username]; ok {
		return model.ErrDuplicateUsername
	}
	if _, ok := s.secretIndex[identity.Secret]; ok {
		return model.ErrDuplicateSecret
	}

	stored := identity.Clone()
	s.identities[stored.ID] = stored
	s.usernameIndex[stored.Username] = stored.ID
	s.secretIndex[stored.Secret] = stored.ID
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return s.identities[id].Clone(), nil
}

// Ledger operations

func (s *Storage) ApplyCoins(ctx context.Context, id model.IdentityID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return 0, model.ErrIdentityNotFound
	}
	if delta > 0 && identity.Coins > math.MaxInt64-delta {
		return identity.Coins, model.ErrBalanceOverflow
	}
	if identity.Coins+delta < 0 {
		return identity.Coins, model.ErrInsufficientFunds
	}
	identity.Coins += delta
	return identity.Coins, nil
}

// Profile operations

func (s *Storage) MergeProfile(ctx context.Context, id model.IdentityID, patch model.Profile) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	identity.Profile = identity.Profile.Merge(patch)
	return identity.Profile.Clone(), nil
}

// Purchase operations

func (s *Storage) AppendPurchase(ctx context.Context, purchase *model.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[purchase.IdentityID]; !ok {
		return model.ErrIdentityNotFound
	}
	s.nextPurchase++
	purchase.ID = s.nextPurchase
	stored := *purchase
	s.purchases[purchase.IdentityID] = append(s.purchases[purchase.IdentityID], &stored)
	return nil
}

func (s *Storage) ListPurchases(ctx context.Context, id model.IdentityID) ([]*model.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.identities[id]; !ok {
		return nil, model.ErrIdentityNotFound
	}
	records := s.purchases[id]
	result := make([]*model.Purchase, 0, len(records))
	for _, p := range records {
		c := *p
		result = append(result, &c)
	}
	return result, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}
