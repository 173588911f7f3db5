package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameshop/internal/api/handler"
	apimiddleware "github.com/mcoot/gameshop/internal/api/middleware"
	"github.com/mcoot/gameshop/internal/metrics"
	"github.com/mcoot/gameshop/internal/middleware"
	"github.com/mcoot/gameshop/internal/services/account"
	"github.com/mcoot/gameshop/internal/services/catalog"
	"github.com/mcoot/gameshop/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	Storage           storage.Storage
	AccountController *account.Controller
	Catalog           catalog.Provider
	GameName          string
	Version           string
	// AdminToken enables POST /product when non-empty
	AdminToken string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	serviceHandler := handler.NewServiceHandler(cfg.GameName, cfg.Version, cfg.Storage, cfg.Logger)
	accountHandler := handler.NewAccountHandler(cfg.AccountController, cfg.Logger)
	dataHandler := handler.NewDataHandler(cfg.AccountController, cfg.Logger)
	productHandler := handler.NewProductHandler(cfg.Catalog, cfg.AccountController, cfg.Logger)

	// Common middleware; request ids first so every later layer can log them
	r.Use(middleware.RequestID)
	r.Use(apimiddleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)

	r.HandleFunc("/", serviceHandler.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", serviceHandler.Health).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	// Account routes
	r.HandleFunc("/account", accountHandler.Create).Methods(http.MethodPost)
	r.HandleFunc("/account", accountHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/account", accountHandler.UpdateCoins).Methods(http.MethodPut)
	r.HandleFunc("/login", accountHandler.Login).Methods(http.MethodPost)

	// Profile routes
	r.HandleFunc("/data", dataHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/data", dataHandler.Update).Methods(http.MethodPut)

	// Catalog routes
	r.HandleFunc("/product", productHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/purchase", productHandler.Purchase).Methods(http.MethodPost)
	if cfg.AdminToken != "" {
		admin := r.Path("/product").Methods(http.MethodPost).Subrouter()
		admin.Use(apimiddleware.AdminToken(cfg.AdminToken))
		admin.HandleFunc("", productHandler.Create)
	}

	return r
}
