// internal/storage/result/postgres.go
package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hika3390/jquants-backtest/internal/backtest"
	"github.com/hika3390/jquants-backtest/internal/core"
)

// PostgresStore persists results in PostgreSQL, with the run payload
// stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parse postgres dsn: %w", err))
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("connect to postgres: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("ping postgres: %w", err))
	}

	return &PostgresStore{pool: pool}, nil
}

var _ Store = (*PostgresStore)(nil)

// Migrate creates the results table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS backtest_results (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			code       TEXT NOT NULL,
			from_date  DATE NOT NULL,
			to_date    DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payload    JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_backtest_results_user
			ON backtest_results (user_id, created_at DESC);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("migrate: %w", err))
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save inserts a record, assigning an ID if empty.
func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("marshal payload: %w", err))
	}

	query := `
		INSERT INTO backtest_results (id, user_id, name, code, from_date, to_date, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.Name, rec.Code,
		rec.FromDate, rec.ToDate, rec.CreatedAt, payload,
	)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("insert result: %w", err))
	}
	return nil
}

// GetByID retrieves a record owned by the user.
func (s *PostgresStore) GetByID(ctx context.Context, userID, id string) (*Record, error) {
	query := `
		SELECT id, user_id, name, code, from_date, to_date, created_at, payload
		FROM backtest_results
		WHERE id = $1 AND user_id = $2
	`
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrResultNotFound
		}
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("get result: %w", err))
	}
	return rec, nil
}

// List returns records matching the filter, newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	query, args := buildListQuery(filter, false)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("list results: %w", err))
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("scan result: %w", err))
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return records, nil
}

// Delete removes a record owned by the user.
func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM backtest_results WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("delete result: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return core.ErrResultNotFound
	}
	return nil
}

// Count returns the number of records matching the filter.
func (s *PostgresStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildListQuery(filter, true)

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, core.WrapError(core.ErrStorageFailed, fmt.Errorf("count results: %w", err))
	}
	return count, nil
}

func buildListQuery(filter ListFilter, count bool) (string, []any) {
	var query string
	if count {
		query = `SELECT COUNT(*) FROM backtest_results WHERE 1=1`
	} else {
		query = `SELECT id, user_id, name, code, from_date, to_date, created_at, payload
			FROM backtest_results WHERE 1=1`
	}

	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Code != "" {
		args = append(args, filter.Code)
		query += fmt.Sprintf(" AND code = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	if !count {
		query += " ORDER BY created_at DESC"
		if filter.Limit > 0 {
			args = append(args, filter.Limit)
			query += fmt.Sprintf(" LIMIT $%d", len(args))
		}
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}
	return query, args
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var payload []byte
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Code,
		&rec.FromDate, &rec.ToDate, &rec.CreatedAt, &payload)
	if err != nil {
		return nil, err
	}

	var res backtest.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	rec.Result = &res
	return &rec, nil
}
