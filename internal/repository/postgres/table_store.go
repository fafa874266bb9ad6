package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"ticketing/internal/domain"
	"ticketing/internal/repository"
)

const createTablesTable = `
	CREATE TABLE IF NOT EXISTS ticketing_tables (
		name       TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// Open connects to Postgres through lib/pq and checks the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type tableStore struct {
	DB  *sql.DB
	now func() time.Time
}

// NewTableStore returns a TableStore keeping each table as one JSONB row.
func NewTableStore(db *sql.DB) domain.TableStore {
	return &tableStore{
		DB:  db,
		now: time.Now,
	}
}

// EnsureSchema creates the ticketing_tables table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createTablesTable); err != nil {
		return fmt.Errorf("create ticketing_tables: %w", err)
	}
	return nil
}

func (s *tableStore) Get(ctx context.Context, table domain.Table, dest any) error {
	query := `
		SELECT doc
		FROM ticketing_tables
		WHERE name = $1
	`
	var doc []byte
	err := s.DB.QueryRowContext(ctx, query, string(table)).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return domain.NewStorageError(table, "get", err)
	}
	return repository.Decode(table, doc, dest)
}

func (s *tableStore) Put(ctx context.Context, table domain.Table, src any) error {
	doc, err := repository.Encode(table, src)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ticketing_tables (name, doc, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.DB.ExecContext(ctx, query, string(table), doc, s.now()); err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	return nil
}
