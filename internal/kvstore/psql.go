package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS kv_store
(
    key   VARCHAR PRIMARY KEY,
    value TEXT NOT NULL
);`

var _ Store = (*PostgresStore)(nil)

// pgxQuerier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db pgxQuerier
}

func NewPostgresStore(db pgxQuerier) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create kv_store table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		ctx,
		`SELECT value FROM kv_store WHERE key = $1;`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("select [%s]: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	_, err := s.db.Exec(
		ctx,
		`
			INSERT INTO kv_store (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;
		`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert [%s]: %w", key, err)
	}
	return nil
}
