package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/gameshop/internal/dependencies/clock"
	"github.com/mcoot/gameshop/internal/dependencies/random"
	"github.com/mcoot/gameshop/internal/metrics"
	"github.com/mcoot/gameshop/internal/services/account"
	"github.com/mcoot/gameshop/internal/services/catalog"
	"github.com/mcoot/gameshop/internal/services/credential"
	"github.com/mcoot/gameshop/internal/services/ledger"
	"github.com/mcoot/gameshop/internal/services/profile"
	"github.com/mcoot/gameshop/internal/services/purchase"
	"github.com/mcoot/gameshop/internal/storage"
	"github.com/mcoot/gameshop/internal/storage/memory"
	redisstorage "github.com/mcoot/gameshop/internal/storage/redis"
	"github.com/mcoot/gameshop/internal/storage/sqldb"
	"github.com/mcoot/gameshop/internal/telemetry"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Catalog *catalog.Static

	// Observability
	Metrics *metrics.Metrics

	// Services
	CredentialService *credential.Service
	LedgerService     *ledger.Service
	ProfileService    *profile.Service
	PurchaseService   *purchase.Service
	AccountController *account.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", "postgres" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds database settings (required if StorageType is "postgres" or "sqlite")
	SQLConfig *sqldb.Config
	// CredentialConfig holds configuration for the credential service (optional)
	CredentialConfig credential.Config
	// ProfileConfig holds the profile allow-list (optional)
	// If empty, defaults to profile.DefaultConfig()
	ProfileConfig profile.Config
	// Products seeds the catalog
	Products []catalog.Product
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	if len(cfg.ProfileConfig.AllowedKeys) == 0 {
		cfg.ProfileConfig = profile.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, cfg, logger, telemetry.Tracer()), nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres, StorageTypeSQLite:
		if cfg.SQLConfig == nil {
			return nil, fmt.Errorf("SQLConfig required when StorageType is %s", storageType)
		}
		return sqldb.Open(ctx, *cfg.SQLConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be one of memory, redis, postgres, sqlite", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) *App {
	m := metrics.New()
	products := catalog.NewStatic(logger, clk, rnd, cfg.Products...)

	credentialService := credential.New(store, clk, rnd, cfg.CredentialConfig)
	ledgerService := ledger.New(store)
	profileService := profile.New(store, cfg.ProfileConfig)
	purchaseService := purchase.New(store, clk)
	accountController := account.NewController(
		store,
		credentialService,
		ledgerService,
		profileService,
		purchaseService,
		products,
		logger,
		m,
		tracer,
	)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Catalog:           products,
		Metrics:           m,
		CredentialService: credentialService,
		LedgerService:     ledgerService,
		ProfileService:    profileService,
		PurchaseService:   purchaseService,
		AccountController: accountController,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
