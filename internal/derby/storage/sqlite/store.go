// Package sqlite provides a SQLite-backed batch aggregate store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/echovale/cubederby/internal/derby/storage"
	"github.com/echovale/cubederby/internal/derby/storage/sqlite/migrations"
	sqlitemigrate "github.com/echovale/cubederby/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists batch aggregates in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite batch store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveBatch inserts one batch aggregate with its rate rows and returns
// the assigned ID.
func (s *Store) SaveBatch(ctx context.Context, record storage.BatchRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if record.Runs <= 0 {
		return 0, fmt.Errorf("runs must be greater than zero")
	}
	if len(record.Rates) == 0 {
		return 0, fmt.Errorf("at least one rate row is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save batch: %w", err)
	}
	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO batch_runs (
		   seed, pads, runs, failures, shuffle, camellya_trigger, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Seed,
		record.Pads,
		record.Runs,
		record.Failures,
		boolToInt(record.Shuffle),
		boolToInt(record.CamellyaTrigger),
		toMillis(createdAt),
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert batch run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("batch run id: %w", err)
	}
	for _, rate := range record.Rates {
		cube := strings.TrimSpace(rate.Name)
		if cube == "" {
			_ = tx.Rollback()
			return 0, fmt.Errorf("rate cube name is required")
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO batch_rates (batch_id, cube, wins, share) VALUES (?, ?, ?, ?)`,
			id,
			cube,
			rate.Wins,
			rate.Share,
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert batch rate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save batch: %w", err)
	}
	return id, nil
}

// GetBatch returns one batch aggregate with its rate rows.
func (s *Store) GetBatch(ctx context.Context, id int64) (storage.BatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.BatchRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.BatchRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, seed, pads, runs, failures, shuffle, camellya_trigger, created_at
		   FROM batch_runs
		  WHERE id = ?`,
		id,
	)
	record, err := scanBatchRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.BatchRecord{}, storage.ErrNotFound
		}
		return storage.BatchRecord{}, fmt.Errorf("get batch run: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT cube, wins, share
		   FROM batch_rates
		  WHERE batch_id = ?
		  ORDER BY share DESC, cube ASC`,
		id,
	)
	if err != nil {
		return storage.BatchRecord{}, fmt.Errorf("get batch rates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rate storage.BatchRate
		if err := rows.Scan(&rate.Name, &rate.Wins, &rate.Share); err != nil {
			return storage.BatchRecord{}, fmt.Errorf("get batch rates: %w", err)
		}
		record.Rates = append(record.Rates, rate)
	}
	if err := rows.Err(); err != nil {
		return storage.BatchRecord{}, fmt.Errorf("get batch rates: %w", err)
	}
	return record, nil
}

// ListBatches returns the most recent batch aggregates, newest first,
// without their rate rows.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]storage.BatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, seed, pads, runs, failures, shuffle, camellya_trigger, created_at
		   FROM batch_runs
		  ORDER BY id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list batch runs: %w", err)
	}
	defer rows.Close()

	var records []storage.BatchRecord
	for rows.Next() {
		record, err := scanBatchRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list batch runs: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batch runs: %w", err)
	}
	return records, nil
}

func scanBatchRun(scan func(dest ...any) error) (storage.BatchRecord, error) {
	var record storage.BatchRecord
	var shuffle, camellya int
	var createdAt int64
	if err := scan(
		&record.ID,
		&record.Seed,
		&record.Pads,
		&record.Runs,
		&record.Failures,
		&shuffle,
		&camellya,
		&createdAt,
	); err != nil {
		return storage.BatchRecord{}, err
	}
	record.Shuffle = shuffle != 0
	record.CamellyaTrigger = camellya != 0
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

var _ storage.BatchStore = (*Store)(nil)
