// Package topology keeps the static supply network in a SQL database and
// materializes it as a model.Network.
//
// Two backends are supported: an embedded SQLite database (modernc.org/sqlite)
// filled from the CSV tables, and an existing PostgreSQL database reached
// through pgx's database/sql driver.
package topology

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// Store wraps the topology database.
type Store struct {
	db     *sql.DB
	driver string
}

// OpenMemory creates an empty in-memory SQLite store with the schema applied.
func OpenMemory(ctx context.Context) (*Store, error) {
	return OpenSQLite(ctx, ":memory:")
}

// OpenSQLite opens (or creates) a SQLite database file and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open(driverSQLite, path)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, driver: driverSQLite}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Open connects to dsn. postgres:// and postgresql:// DSNs use pgx and expect
// the schema to exist already; anything else is treated as a SQLite path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if !isPostgresDSN(dsn) {
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	}
	db, err := sql.Open(driverPostgres, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping topology db: %w", err)
	}
	return &Store{db: db, driver: driverPostgres}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// placeholder returns the bind marker for the n-th (1-based) argument.
func (s *Store) placeholder(n int) string {
	if s.driver == driverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Schema is the topology DDL. It is valid for both SQLite and PostgreSQL.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS refineries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		capacity BIGINT NOT NULL DEFAULT 0,
		max_output BIGINT NOT NULL DEFAULT 0,
		production BIGINT NOT NULL DEFAULT 0,
		overflow_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		underflow_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		over_output_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		production_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		production_co2 DOUBLE PRECISION NOT NULL DEFAULT 0,
		initial_stock BIGINT NOT NULL DEFAULT 0,
		node_type TEXT NOT NULL DEFAULT 'REFINERY'
	)`,
	`CREATE TABLE IF NOT EXISTS tanks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		capacity BIGINT NOT NULL DEFAULT 0,
		max_output BIGINT NOT NULL DEFAULT 0,
		max_input BIGINT NOT NULL DEFAULT 0,
		overflow_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		underflow_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		over_output_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		over_input_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		initial_stock BIGINT NOT NULL DEFAULT 0,
		node_type TEXT NOT NULL DEFAULT 'STORAGE_TANK'
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		max_input BIGINT NOT NULL DEFAULT 0,
		over_input_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		late_delivery_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		early_delivery_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
		node_type TEXT NOT NULL DEFAULT 'CUSTOMER'
	)`,
	`CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		distance BIGINT NOT NULL DEFAULT 0,
		lead_time_days INTEGER NOT NULL DEFAULT 0,
		connection_type TEXT NOT NULL DEFAULT 'PIPELINE',
		max_capacity BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS demands (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		quantity BIGINT NOT NULL DEFAULT 0,
		post_day INTEGER NOT NULL DEFAULT 0,
		start_delivery_day INTEGER NOT NULL DEFAULT 0,
		end_delivery_day INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_connections_to ON connections(to_id)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
