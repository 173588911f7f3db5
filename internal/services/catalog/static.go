package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/mcoot/gameshop/internal/dependencies/clock"
	"github.com/mcoot/gameshop/internal/dependencies/random"
	"github.com/mcoot/gameshop/internal/model"
)

// DefaultCurrency is used for every product created through the shop
const DefaultCurrency = "eur"

var validIntervals = map[string]bool{"day": true, "week": true, "month": true, "year": true}

var validTaxBehaviors = map[string]bool{"exclusive": true, "inclusive": true}

// Static is an in-process Provider holding products in memory.
// Charges always succeed unless the product is unknown or marked declined.
type Static struct {
	logger *slog.Logger
	clock  clock.Clock
	random random.Random

	mu       sync.RWMutex
	products []Product
	declined map[string]bool
}

// Ensure Static implements Provider
var _ Provider = (*Static)(nil)

// NewStatic creates a Static provider seeded with products
func NewStatic(logger *slog.Logger, clock clock.Clock, random random.Random, products ...Product) *Static {
	return &Static{
		logger:   logger.With(slog.String("adapter", "static_catalog")),
		clock:    clock,
		random:   random,
		products: append([]Product(nil), products...),
		declined: make(map[string]bool),
	}
}

// LoadProducts reads a JSON array of products from path
func LoadProducts(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	for i := range products {
		if products[i].Currency == "" {
			products[i].Currency = DefaultCurrency
		}
		if products[i].TaxBehavior == "" {
			products[i].TaxBehavior = "exclusive"
		}
	}
	return products, nil
}

// Decline makes future charges for productID fail with model.ErrPaymentDeclined
func (s *Static) Decline(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declined[productID] = true
}

func (s *Static) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	for i, p := range s.products {
		p.Metadata = maps.Clone(p.Metadata)
		out[i] = p
	}
	return out, nil
}

func (s *Static) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	product, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.products = append(s.products, *product)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
		slog.Int64("unit_amount", product.UnitAmount),
		slog.String("currency", product.Currency),
	)
	return product, nil
}

func (s *Static) buildProduct(input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidProduct)
	}
	if input.Price <= 0 || math.IsNaN(input.Price) || math.IsInf(input.Price, 0) {
		return nil, fmt.Errorf("%w: price must be positive", model.ErrInvalidProduct)
	}
	unitAmount := math.Round(input.Price * 100)
	if unitAmount > math.MaxInt64/2 {
		return nil, fmt.Errorf("%w: price too large", model.ErrInvalidProduct)
	}

	taxBehavior := input.TaxBehavior
	if taxBehavior == "" {
		taxBehavior = "exclusive"
	}
	if !validTaxBehaviors[taxBehavior] {
		return nil, fmt.Errorf("%w: unknown tax behavior %q", model.ErrInvalidProduct, taxBehavior)
	}

	var recurring *Recurring
	if input.Recurrence != "" {
		if !validIntervals[input.Recurrence] {
			return nil, fmt.Errorf("%w: unknown recurrence %q", model.ErrInvalidProduct, input.Recurrence)
		}
		recurring = &Recurring{Interval: input.Recurrence}
	}

	return &Product{
		ID:          "prod_" + s.random.UUID(),
		Name:        name,
		Description: input.Description,
		UnitAmount:  int64(unitAmount),
		Currency:    DefaultCurrency,
		Recurring:   recurring,
		TaxBehavior: taxBehavior,
		Metadata:    maps.Clone(input.Metadata),
	}, nil
}

func (s *Static) Charge(ctx context.Context, identityID model.IdentityID, productID string) (*Receipt, error) {
	s.mu.RLock()
	var product *Product
	for i := range s.products {
		if s.products[i].ID == productID {
			p := s.products[i]
			product = &p
			break
		}
	}
	declined := s.declined[productID]
	s.mu.RUnlock()

	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if declined {
		s.logger.WarnContext(ctx, "charge declined",
			slog.String("product_id", productID),
			slog.String("identity_id", string(identityID)),
		)
		return nil, model.ErrPaymentDeclined
	}

	receipt := &Receipt{
		ID:          "ch_" + s.random.UUID(),
		IdentityID:  identityID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Amount:      product.UnitAmount,
		Currency:    product.Currency,
		ChargedAt:   s.clock.Now(),
	}
	s.logger.InfoContext(ctx, "charge succeeded",
		slog.String("receipt_id", receipt.ID),
		slog.String("product_id", productID),
		slog.String("identity_id", string(identityID)),
	)
	return receipt, nil
}
