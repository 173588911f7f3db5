// Package config loads server configuration from GAMESHOP_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameshop/internal/api"
	"github.com/mcoot/gameshop/internal/factory"
	"github.com/mcoot/gameshop/internal/logging"
	redisstorage "github.com/mcoot/gameshop/internal/storage/redis"
	"github.com/mcoot/gameshop/internal/storage/sqldb"
	"github.com/mcoot/gameshop/internal/telemetry"
)

// Prefix is prepended to every variable name
const Prefix = "GAMESHOP_"

// Config is the full server configuration
type Config struct {
	// HTTP server
	Host              string        `env:"HOST"`
	Port              int           `env:"PORT"                envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT"        envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT"       envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT"        envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"    envDefault:"30s"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL"     envDefault:"info"`
	AuditLogDir string `env:"AUDIT_LOG_DIR"`

	// Storage
	StorageType   string `env:"STORAGE_TYPE"    envDefault:"memory"`
	RedisURL      string `env:"REDIS_URL"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH"     envDefault:"gameshop.db"`

	// Accounts
	ProfileAllowedKeys []string `env:"PROFILE_ALLOWED_KEYS" envSeparator:"," envDefault:"level,preferences,score"`
	BcryptCost         int      `env:"BCRYPT_COST"          envDefault:"10"`

	// Shop
	GameName    string `env:"GAME_NAME"    envDefault:"Name of your Game"`
	Version     string `env:"VERSION"      envDefault:"0.0.1"`
	CatalogFile string `env:"CATALOG_FILE"`
	AdminToken  string `env:"ADMIN_TOKEN"`

	// Tracing
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
}

// Load parses the process environment
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses the given variables instead of the process environment
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ProfileAllowedKeys = trimKeys(cfg.ProfileAllowedKeys)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func trimKeys(keys []string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Validate checks cross-field requirements
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(c.ProfileAllowedKeys) == 0 {
		return fmt.Errorf("%sPROFILE_ALLOWED_KEYS must name at least one key", Prefix)
	}

	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%sREDIS_URL required when %sSTORAGE_TYPE=redis", Prefix, Prefix)
		}
	case factory.StorageTypePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%sDATABASE_URL required when %sSTORAGE_TYPE=postgres", Prefix, Prefix)
		}
	case factory.StorageTypeSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%sSQLITE_PATH required when %sSTORAGE_TYPE=sqlite", Prefix, Prefix)
		}
	default:
		return fmt.Errorf("invalid %sSTORAGE_TYPE %q", Prefix, c.StorageType)
	}
	return nil
}

// Server returns the HTTP server settings
func (c Config) Server() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.ReadTimeout = c.ReadTimeout
	cfg.ReadHeaderTimeout = c.ReadHeaderTimeout
	cfg.WriteTimeout = c.WriteTimeout
	cfg.IdleTimeout = c.IdleTimeout
	cfg.ShutdownTimeout = c.ShutdownTimeout
	return cfg
}

// Redis returns the redis backend settings
func (c Config) Redis() redisstorage.Config {
	cfg := redisstorage.DefaultConfig()
	cfg.URL = c.RedisURL
	cfg.PoolSize = c.RedisPoolSize
	return cfg
}

// SQL returns the SQL backend settings for the configured storage type
func (c Config) SQL() sqldb.Config {
	if c.StorageType == factory.StorageTypeSQLite {
		cfg := sqldb.DefaultConfig(sqldb.SQLite)
		cfg.DSN = c.SQLitePath
		return cfg
	}
	cfg := sqldb.DefaultConfig(sqldb.Postgres)
	cfg.DSN = c.DatabaseURL
	return cfg
}

// Telemetry returns the tracing settings
func (c Config) Telemetry() telemetry.Config {
	return telemetry.Config{
		Endpoint:       c.OTLPEndpoint,
		ServiceName:    "gameshop",
		ServiceVersion: c.Version,
	}
}
