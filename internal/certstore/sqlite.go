package certstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/imamik/estopo/internal/certs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenSQLite opens a SQLite database at the given path and runs all pending
// migrations. Use ":memory:" for an in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A second connection to ":memory:" would see a different database,
	// and SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// SQLiteStore keeps bundles in the cert_bundles table.
type SQLiteStore struct {
	DB *sql.DB
}

func (s *SQLiteStore) Load(ctx context.Context, identity string) ([]byte, error) {
	var data []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT data FROM cert_bundles WHERE identity = ?`, identity,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bundle %q: %w", identity, certs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select cert bundle: %w", err)
	}
	return data, nil
}

func (s *SQLiteStore) Save(ctx context.Context, identity string, data []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO cert_bundles (identity, data) VALUES (?, ?)`, identity, data,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("bundle %q: %w", identity, certs.ErrAlreadyExists)
		}
		return fmt.Errorf("insert cert bundle: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Replace(ctx context.Context, identity string, data []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO cert_bundles (identity, data) VALUES (?, ?)
		 ON CONFLICT(identity) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		identity, data,
	)
	if err != nil {
		return fmt.Errorf("upsert cert bundle: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
