package sqldb

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage/sqldb/migrations"
)

// Dialect selects driver, placeholder style and error decoding
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a dialect name
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case Postgres, SQLite:
		return d, nil
	default:
		return "", fmt.Errorf("unknown sql dialect %q", name)
	}
}

// driverName is the database/sql driver registered for the dialect
func (d Dialect) driverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

// gooseDialect is the goose dialect name
func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

// migrations returns the embedded migration set and the directory inside it
func (d Dialect) migrations() (fs.FS, string) {
	if d == SQLite {
		return migrations.SQLite, "sqlite"
	}
	return migrations.Postgres, "postgres"
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $N placeholders into the dialect's form.
// SQLite takes ?N as an ordinal parameter.
func (d Dialect) rebind(query string) string {
	if d != SQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// uniqueViolation maps a unique-constraint failure on identities to the domain error.
// Returns nil if err is not a unique violation.
func (d Dialect) uniqueViolation(err error) error {
	var detail string

	var pgErr *pgconn.PgError
	var sqliteErr *msqlite.Error
	switch {
	case errors.As(err, &pgErr):
		if pgErr.Code != "23505" {
			return nil
		}
		detail = pgErr.ConstraintName + " " + pgErr.Message
	case errors.As(err, &sqliteErr):
		if sqliteErr.Code() != sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			return nil
		}
		detail = sqliteErr.Error()
	default:
		return nil
	}

	switch {
	case strings.Contains(detail, "username"):
		return model.ErrDuplicateUsername
	case strings.Contains(detail, "secret"):
		return model.ErrDuplicateSecret
	default:
		return nil
	}
}

// sqlitePragmas are applied to every sqlite connection unless the DSN sets them
var sqlitePragmas = []string{"busy_timeout(5000)", "foreign_keys(1)", "journal_mode(WAL)"}

// sqliteDSN adds the default pragmas to a sqlite path or file: URI, keeping any
// query parameters already present.
func sqliteDSN(dsn string) (string, error) {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	if !strings.HasPrefix(base, "file:") {
		base = filepath.Clean(base)
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn query: %w", err)
	}

	set := make(map[string]bool)
	for _, p := range params["_pragma"] {
		set[pragmaName(p)] = true
	}
	for _, p := range sqlitePragmas {
		if !set[pragmaName(p)] {
			params.Add("_pragma", p)
		}
	}
	return base + "?" + params.Encode(), nil
}

// pragmaName returns the lowercase pragma name from "name(value)" or "name=value"
func pragmaName(pragma string) string {
	name, _, _ := strings.Cut(pragma, "(")
	name, _, _ = strings.Cut(name, "=")
	return strings.ToLower(strings.TrimSpace(name))
}
