package purchase

import (
	"context"
	"time"

	"github.com/mcoot/gameshop/internal/dependencies/clock"
	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// Service is the append-only purchase log
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates a new purchase Service
func New(storage storage.Storage, clock clock.Clock) *Service {
	return &Service{storage: storage, clock: clock}
}

// Record appends an immutable purchase record. A zero timestamp means now.
func (s *Service) Record(ctx context.Context, id model.IdentityID, productName string, at time.Time) (*model.Purchase, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}
	purchase := &model.Purchase{
		IdentityID:   id,
		ProductName:  productName,
		PurchaseDate: at,
	}
	if err := s.storage.AppendPurchase(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListFor returns the identity's purchases in insertion order
func (s *Service) ListFor(ctx context.Context, id model.IdentityID) ([]*model.Purchase, error) {
	return s.storage.ListPurchases(ctx, id)
}
