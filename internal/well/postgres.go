package well

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS wells (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	document   JSONB NOT NULL,
	version    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const wellColumns = `id, name, document, version, created_at, updated_at`

// PostgresStore keeps wells in a single Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the wells table if it is missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create wells table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, w *Well) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO wells (`+wellColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.Name, []byte(w.Document), w.Version, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert well: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Well, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+wellColumns+` FROM wells WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get well: %w", err)
	}
	w, err := pgx.CollectExactlyOneRow(rows, scanWell)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get well: %w", err)
	}
	return &w, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Well, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+wellColumns+` FROM wells ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list wells: %w", err)
	}
	wells, err := pgx.CollectRows(rows, scanWell)
	if err != nil {
		return nil, fmt.Errorf("list wells: %w", err)
	}
	return wells, nil
}

func (s *PostgresStore) Update(ctx context.Context, w *Well, prevVersion int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE wells SET name = $2, document = $3, version = $4, updated_at = $5
		 WHERE id = $1 AND version = $6`,
		w.ID, w.Name, []byte(w.Document), w.Version, w.UpdatedAt, prevVersion)
	if err != nil {
		return fmt.Errorf("update well: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, w.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM wells WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete well: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWell(row pgx.CollectableRow) (Well, error) {
	var w Well
	var doc []byte
	err := row.Scan(&w.ID, &w.Name, &doc, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	w.Document = doc
	return w, err
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
