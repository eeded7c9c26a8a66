// Package db implements the PostgreSQL persistence layer: menu catalog,
// delivery coverage areas, promo codes, orders, and chat sessions. Stores
// are thin over database/sql; domain rules that need no connection (promo
// evaluation, modifier selection checks) are pure functions so they can be
// tested without a database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
)

// ErrNotFound is returned when a row does not exist. Callers translate it
// into user-facing Arabic messages; it never reaches the customer directly.
var ErrNotFound = errors.New("record not found")

//go:embed schema.sql
var schemaSQL string

//go:embed seed.sql
var seedSQL string

// Open connects to PostgreSQL and verifies the connection.
func Open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded schema. All DDL is idempotent
// (CREATE TABLE IF NOT EXISTS), so running it repeatedly is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Seed loads the demo dataset: Riyadh coverage areas, promo codes, and a
// sample menu with modifiers. It replaces the current catalog and clears
// recorded orders, so it is for development databases only.
func Seed(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, seedSQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	return tx.Commit()
}

// Store bundles the per-table stores over one connection pool.
type Store struct {
	DB       *sql.DB
	Menu     *MenuStore
	Coverage *CoverageStore
	Promos   *PromoStore
	Orders   *OrderStore
	Sessions *SessionStore
}

// NewStore wires all stores onto db. sessionExpiry controls how far in the
// future SessionStore.Save pushes expires_at on every write.
func NewStore(db *sql.DB, sessionExpiry time.Duration) *Store {
	return &Store{
		DB:       db,
		Menu:     &MenuStore{db: db},
		Coverage: &CoverageStore{db: db},
		Promos:   &PromoStore{db: db},
		Orders:   &OrderStore{db: db},
		Sessions: &SessionStore{db: db, expiry: sessionExpiry},
	}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// nullString maps the empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt64 maps a nil pointer to SQL NULL.
func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
