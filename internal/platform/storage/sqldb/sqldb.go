// Package sqldb opens bun databases over the SQLite, MySQL and Postgres
// drivers with consistent pool settings.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Config selects the database and tunes its connection pool.
type Config struct {
	Driver          string        `env:"LMS_DB_DRIVER" envDefault:"sqlite"`
	DSN             string        `env:"LMS_DB_DSN" envDefault:"data/lms.db"`
	MaxOpenConns    int           `env:"LMS_DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"LMS_DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"LMS_DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"LMS_DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

// Open connects to the configured database, verifies it answers, and wraps it
// in a bun.DB with the matching dialect.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	driverName := driver
	switch driver {
	case DriverSQLite:
		prepared, err := prepareSQLiteDSN(dsn)
		if err != nil {
			return nil, err
		}
		dsn = prepared
	case DriverPostgres:
		// The pgx stdlib registers driver name "pgx".
		driverName = "pgx"
	case DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	// Each connection to an in-memory SQLite database sees its own database.
	if driver == DriverSQLite && isSQLiteMemory(cfg.DSN) {
		maxOpen, maxIdle = 1, 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		if err := ensureForeignKeysEnabled(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return bun.NewDB(sqlDB, dialectFor(driver)), nil
}

// DialectName returns the driver name matching db's dialect.
func DialectName(db bun.IDB) string {
	switch db.Dialect().Name() {
	case dialect.PG:
		return DriverPostgres
	case dialect.MySQL:
		return DriverMySQL
	default:
		return DriverSQLite
	}
}

func dialectFor(driver string) schema.Dialect {
	switch driver {
	case DriverPostgres:
		return pgdialect.New()
	case DriverMySQL:
		return mysqldialect.New()
	default:
		return sqlitedialect.New()
	}
}

func prepareSQLiteDSN(dsn string) (string, error) {
	if !isSQLiteMemory(dsn) && !strings.HasPrefix(dsn, "file:") {
		path := dsn
		if idx := strings.Index(path, "?"); idx >= 0 {
			path = path[:idx]
		}
		if dir := filepath.Dir(filepath.Clean(path)); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn, nil
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas, nil
	}
	return dsn + "?" + sqlitePragmas, nil
}

func isSQLiteMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func ensureForeignKeysEnabled(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}
