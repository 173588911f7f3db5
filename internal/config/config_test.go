package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameshop/internal/storage/sqldb"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server().ReadHeaderTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Server().IdleTimeout)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"level", "preferences", "score"}, cfg.ProfileAllowedKeys)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "Name of your Game", cfg.GameName)
	assert.Equal(t, "0.0.1", cfg.Version)
	assert.Empty(t, cfg.AdminToken)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"GAMESHOP_PORT":                 "9090",
		"GAMESHOP_STORAGE_TYPE":         "redis",
		"GAMESHOP_REDIS_URL":            "redis://cache:6379/1",
		"GAMESHOP_PROFILE_ALLOWED_KEYS": "level, avatar ,,",
		"GAMESHOP_WRITE_TIMEOUT":        "5s",
		"GAMESHOP_GAME_NAME":            "Dungeon Dash",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"level", "avatar"}, cfg.ProfileAllowedKeys)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis().URL)
	assert.Equal(t, 5*time.Second, cfg.Server().WriteTimeout)
	assert.Equal(t, "Dungeon Dash", cfg.GameName)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"unknown storage", map[string]string{"GAMESHOP_STORAGE_TYPE": "mongo"}},
		{"redis without url", map[string]string{"GAMESHOP_STORAGE_TYPE": "redis"}},
		{"postgres without dsn", map[string]string{"GAMESHOP_STORAGE_TYPE": "postgres"}},
		{"bad log level", map[string]string{"GAMESHOP_LOG_LEVEL": "chatty"}},
		{"bcrypt cost too low", map[string]string{"GAMESHOP_BCRYPT_COST": "1"}},
		{"empty allow-list", map[string]string{"GAMESHOP_PROFILE_ALLOWED_KEYS": " , "}},
		{"bad port", map[string]string{"GAMESHOP_PORT": "not-a-port"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestSQLSettings(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"GAMESHOP_STORAGE_TYPE": "sqlite",
		"GAMESHOP_SQLITE_PATH":  "/var/lib/gameshop/shop.db",
	})
	require.NoError(t, err)
	sql := cfg.SQL()
	assert.Equal(t, sqldb.SQLite, sql.Dialect)
	assert.Equal(t, "/var/lib/gameshop/shop.db", sql.DSN)
	assert.Equal(t, 1, sql.MaxOpenConns)

	cfg, err = LoadFrom(map[string]string{
		"GAMESHOP_STORAGE_TYPE": "postgres",
		"GAMESHOP_DATABASE_URL": "postgres://shop@db/shop",
	})
	require.NoError(t, err)
	sql = cfg.SQL()
	assert.Equal(t, sqldb.Postgres, sql.Dialect)
	assert.Equal(t, "postgres://shop@db/shop", sql.DSN)
}
