package factory

import (
	"time"

	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameshop/internal/dependencies/mocks"
	"github.com/mcoot/gameshop/internal/services/catalog"
	"github.com/mcoot/gameshop/internal/services/credential"
	"github.com/mcoot/gameshop/internal/services/profile"
	"github.com/mcoot/gameshop/internal/storage/memory"
	"github.com/mcoot/gameshop/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := Config{
		CredentialConfig: credential.Config{BcryptCost: bcrypt.MinCost},
		ProfileConfig:    profile.DefaultConfig(),
		Products:         TestProducts(),
	}
	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger(), noop.NewTracerProvider().Tracer(""))

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// TestProducts is a small catalog for tests
func TestProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:          "prod_coins_100",
			Name:        "100 Coins",
			Description: "A small pouch of coins",
			UnitAmount:  99,
			Currency:    "eur",
			TaxBehavior: "exclusive",
		},
		{
			ID:          "prod_season_pass",
			Name:        "Season Pass",
			Description: "Monthly battle pass",
			UnitAmount:  499,
			Currency:    "eur",
			Recurring:   &catalog.Recurring{Interval: "month"},
			TaxBehavior: "exclusive",
		},
	}
}
