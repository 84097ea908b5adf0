package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// PostgresLocationStore persists the last viewed location in PostgreSQL. It is
// the alternative to Redis for deployments that already run a database.
type PostgresLocationStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresLocationStore(db *sql.DB) *PostgresLocationStore {
	return &PostgresLocationStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const createLastLocationTable = `CREATE TABLE IF NOT EXISTS last_location (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const getLastLocation = `SELECT value FROM last_location WHERE key = $1`

const upsertLastLocation = `INSERT INTO last_location (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// EnsureSchema creates the backing table if it does not exist yet. It should
// be called once during startup, before the store is used.
func (s *PostgresLocationStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createLastLocationTable); err != nil {
		return failure(ErrStorage, "create last_location table: %w", err)
	}
	return nil
}

func (s *PostgresLocationStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getLastLocation, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrLocationNotStored
	}
	if err != nil {
		return "", failure(ErrStorage, "select last location %q: %w", key, err)
	}
	return value, nil
}

func (s *PostgresLocationStore) Put(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertLastLocation, key, value, s.now()); err != nil {
		return failure(ErrStorage, "upsert last location %q: %w", key, err)
	}
	return nil
}

// connectPostgres opens and pings the database behind dbURL.
func connectPostgres(ctx context.Context, dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
