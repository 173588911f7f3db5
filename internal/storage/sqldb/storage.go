// Package sqldb is the relational storage backend, serving both PostgreSQL (pgx)
// and SQLite (modernc) from one set of queries.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// Config holds SQL connection and behavior settings
type Config struct {
	Dialect Dialect

	// DSN is a postgres connection string, or a file path for sqlite
	DSN string

	MaxOpenConns int

	// MaxRetries bounds compare-and-swap retries on profile merges
	MaxRetries int
}

// DefaultConfig returns sensible defaults for the given dialect
func DefaultConfig(dialect Dialect) Config {
	cfg := Config{
		Dialect:      dialect,
		MaxOpenConns: 10,
		MaxRetries:   50,
	}
	if dialect == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		cfg.MaxOpenConns = 1
	}
	return cfg
}

// Storage is a database/sql implementation of the storage interface
type Storage struct {
	db      *sql.DB
	dialect Dialect
	cfg     Config
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// gooseUp is a seam for testing goose.UpContext
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Open connects to the database, verifies the connection and applies migrations
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s dsn is required", cfg.Dialect)
	}

	dsn := cfg.DSN
	if cfg.Dialect == SQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(cfg.Dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", cfg.Dialect, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", cfg.Dialect, err)
	}

	s := NewWithDB(db, cfg)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an existing handle without migrating (for testing)
func NewWithDB(db *sql.DB, cfg Config) *Storage {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig(cfg.Dialect).MaxRetries
	}
	return &Storage{db: db, dialect: cfg.Dialect, cfg: cfg}
}

// Migrate applies the embedded goose migrations for the dialect
func (s *Storage) Migrate(ctx context.Context) error {
	fsys, dir := s.dialect.migrations()
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(s.dialect.gooseDialect()); err != nil {
		return err
	}
	return gooseUp(ctx, s.db, dir)
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Storage) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Storage) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Identity operations

const identityColumns = `id, username, password_hash, secret, coins, profile, created_at`

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	profile := identity.Profile
	if profile == nil {
		profile = model.Profile{}
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `INSERT INTO identities (`+identityColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(identity.ID),
		identity.Username,
		identity.PasswordHash,
		identity.Secret,
		identity.Coins,
		string(data),
		toMillis(identity.CreatedAt),
	)
	if err != nil {
		if dup := s.dialect.uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	return s.scanIdentity(s.queryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, string(id)))
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	return s.scanIdentity(s.queryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE username = $1`, username))
}

func (s *Storage) scanIdentity(row *sql.Row) (*model.Identity, error) {
	var (
		identity  model.Identity
		id        string
		profile   string
		createdAt int64
	)
	err := row.Scan(&id, &identity.Username, &identity.PasswordHash, &identity.Secret,
		&identity.Coins, &profile, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("select identity: %w", err)
	}

	identity.ID = model.IdentityID(id)
	identity.CreatedAt = fromMillis(createdAt)
	identity.Profile, err = model.DecodeProfile([]byte(profile))
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &identity, nil
}

// Ledger operations

func (s *Storage) ApplyCoins(ctx context.Context, id model.IdentityID, delta int64) (int64, error) {
	var (
		coins int64
		err   error
	)
	switch {
	case delta >= 0:
		err = s.queryRow(ctx,
			`UPDATE identities SET coins = coins + $1 WHERE id = $2 AND coins <= $3 RETURNING coins`,
			delta, string(id), math.MaxInt64-delta,
		).Scan(&coins)
	case delta == math.MinInt64:
		// no balance can cover it
		err = sql.ErrNoRows
	default:
		err = s.queryRow(ctx,
			`UPDATE identities SET coins = coins - $1 WHERE id = $2 AND coins >= $1 RETURNING coins`,
			-delta, string(id),
		).Scan(&coins)
	}
	if err == nil {
		return coins, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("update coins: %w", err)
	}

	// Nothing updated: either the identity is missing or the guard rejected the change
	err = s.queryRow(ctx, `SELECT coins FROM identities WHERE id = $1`, string(id)).Scan(&coins)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrIdentityNotFound
		}
		return 0, fmt.Errorf("select coins: %w", err)
	}
	if delta >= 0 {
		return coins, model.ErrBalanceOverflow
	}
	return coins, model.ErrInsufficientFunds
}

// Profile operations

func (s *Storage) MergeProfile(ctx context.Context, id model.IdentityID, patch model.Profile) (model.Profile, error) {
	for range s.cfg.MaxRetries {
		var (
			raw     string
			version int64
		)
		err := s.queryRow(ctx, `SELECT profile, profile_version FROM identities WHERE id = $1`, string(id)).
			Scan(&raw, &version)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, model.ErrIdentityNotFound
			}
			return nil, fmt.Errorf("select profile: %w", err)
		}

		current, err := model.DecodeProfile([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		merged := current.Merge(patch)
		data, err := json.Marshal(merged)
		if err != nil {
			return nil, err
		}

		res, err := s.exec(ctx,
			`UPDATE identities SET profile = $1, profile_version = profile_version + 1 WHERE id = $2 AND profile_version = $3`,
			string(data), string(id), version,
		)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if n == 1 {
			return merged, nil
		}
	}
	return nil, model.ErrConflict
}

// Purchase operations

func (s *Storage) AppendPurchase(ctx context.Context, purchase *model.Purchase) error {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO purchases (identity_id, product_name, purchase_date)
		 SELECT id, CAST($2 AS TEXT), CAST($3 AS BIGINT) FROM identities WHERE id = $1
		 RETURNING id`,
		string(purchase.IdentityID), purchase.ProductName, toMillis(purchase.PurchaseDate),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrIdentityNotFound
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	purchase.ID = model.PurchaseID(id)
	return nil
}

func (s *Storage) ListPurchases(ctx context.Context, id model.IdentityID) ([]*model.Purchase, error) {
	var exists int
	err := s.queryRow(ctx, `SELECT 1 FROM identities WHERE id = $1`, string(id)).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("select identity: %w", err)
	}

	rows, err := s.query(ctx,
		`SELECT id, product_name, purchase_date FROM purchases WHERE identity_id = $1 ORDER BY id`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]*model.Purchase, 0)
	for rows.Next() {
		var (
			pid  int64
			name string
			at   int64
		)
		if err := rows.Scan(&pid, &name, &at); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, &model.Purchase{
			ID:           model.PurchaseID(pid),
			IdentityID:   id,
			ProductName:  name,
			PurchaseDate: fromMillis(at),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}
