package catalog

import (
	"context"
	"time"

	"github.com/mcoot/gameshop/internal/model"
)

// Recurring describes a subscription price
type Recurring struct {
	Interval string `json:"interval"`
}

// Product is a purchasable catalog entry. Prices are in the currency's minor unit.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	UnitAmount  int64             `json:"unit_amount"`
	Currency    string            `json:"currency"`
	Recurring   *Recurring        `json:"recurring,omitempty"`
	TaxBehavior string            `json:"tax_behavior"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ProductInput is the admin-supplied definition of a new product
type ProductInput struct {
	Name        string
	Description string
	// Price in major units (e.g. 4.99 euro)
	Price       float64
	Recurrence  string
	TaxBehavior string
	Metadata    map[string]string
}

// Receipt confirms a completed external charge
type Receipt struct {
	ID          string
	IdentityID  model.IdentityID
	ProductID   string
	ProductName string
	Amount      int64
	Currency    string
	ChargedAt   time.Time
}

// Provider is the external catalog and payment collaborator
type Provider interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)

	// Charge takes payment for one product. It must not be called while
	// holding any ledger or profile lock.
	Charge(ctx context.Context, identityID model.IdentityID, productID string) (*Receipt, error)
}
