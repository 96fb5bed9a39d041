// Package sqlstore persists LMS state through bun on SQLite, MySQL or
// Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/lms/internal/services/lms/storage"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore/migrations"
)

// Store provides bun-backed persistence for every LMS aggregate.
type Store struct {
	db *bun.DB
}

// Open connects to the configured database and applies migrations.
func Open(ctx context.Context, cfg sqldb.Config) (*Store, error) {
	db, err := sqldb.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := New(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// New wraps an open bun database without migrating it.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return sqlmigrate.Apply(ctx, s.db, migrations.FS, sqldb.DialectName(s.db))
}

// DB exposes the underlying bun database.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value *time.Time) *int64 {
	if value == nil || value.IsZero() {
		return nil
	}
	millis := toMillis(*value)
	return &millis
}

func fromNullMillis(value *int64) *time.Time {
	if value == nil {
		return nil
	}
	t := fromMillis(*value)
	return &t
}

// mapError translates driver errors into storage sentinels. Unique
// violations are detected by message: SQLite "UNIQUE constraint failed",
// MySQL 1062 "Duplicate entry", Postgres 23505.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	value := strings.ToLower(err.Error())
	if strings.Contains(value, "unique") || strings.Contains(value, "duplicate") ||
		strings.Contains(value, "23505") || strings.Contains(value, "1062") {
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	}
	return err
}

// requireAffected maps a zero-row delete or update to ErrNotFound.
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
