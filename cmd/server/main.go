package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/gameshop/internal/api"
	"github.com/mcoot/gameshop/internal/config"
	"github.com/mcoot/gameshop/internal/factory"
	"github.com/mcoot/gameshop/internal/logging"
	"github.com/mcoot/gameshop/internal/services/catalog"
	"github.com/mcoot/gameshop/internal/services/credential"
	"github.com/mcoot/gameshop/internal/services/profile"
	"github.com/mcoot/gameshop/internal/telemetry"
)

func main() {
	os.Exit(run())
}

// run serves until a signal or server failure and returns the process exit code.
// Every deferred cleanup runs before the code is returned.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	// Set up logging with JSON output, mirrored to an audit file when configured
	level, _ := logging.ParseLevel(cfg.LogLevel)
	writers := []io.Writer{os.Stdout}
	if cfg.AuditLogDir != "" {
		auditFile, err := logging.OpenAuditFile(cfg.AuditLogDir, time.Now())
		if err != nil {
			slog.Error("failed to open audit log", slog.String("error", err.Error()))
			return 1
		}
		defer auditFile.Close()
		writers = append(writers, auditFile)
	}
	logger := logging.New(level, writers...)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry())
	if err != nil {
		logger.Error("failed to set up tracing", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	var products []catalog.Product
	if cfg.CatalogFile != "" {
		products, err = catalog.LoadProducts(cfg.CatalogFile)
		if err != nil {
			logger.Error("failed to load catalog", slog.String("error", err.Error()))
			return 1
		}
	}

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:           logger,
		StorageType:      cfg.StorageType,
		CredentialConfig: credential.Config{BcryptCost: cfg.BcryptCost},
		ProfileConfig:    profile.Config{AllowedKeys: cfg.ProfileAllowedKeys},
		Products:         products,
	}
	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := cfg.Redis()
		factoryCfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres, factory.StorageTypeSQLite:
		sqlCfg := cfg.SQL()
		factoryCfg.SQLConfig = &sqlCfg
	}

	// Create application factory
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("storage close error", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		Metrics:           app.Metrics,
		Storage:           app.Storage,
		AccountController: app.AccountController,
		Catalog:           app.Catalog,
		GameName:          cfg.GameName,
		Version:           cfg.Version,
		AdminToken:        cfg.AdminToken,
	})

	server := api.NewServer(router, cfg.Server(), logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("game", cfg.GameName),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}
