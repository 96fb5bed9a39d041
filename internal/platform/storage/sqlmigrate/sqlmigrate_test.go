package sqlmigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

func TestApplyRecordsApplied(t *testing.T) {
	db := openInMemoryDB(t)

	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\nCREATE TABLE tags(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;"),
		},
	}

	require.NoError(t, Apply(context.Background(), db, migrations, ""))
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
	assert.True(t, tableExists(t, db, "items"))
	assert.True(t, tableExists(t, db, "tags"))
}

func TestApplySkipsAlreadyApplied(t *testing.T) {
	db := openInMemoryDB(t)

	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);"),
		},
	}
	require.NoError(t, Apply(context.Background(), db, migrations, ""))
	require.NoError(t, Apply(context.Background(), db, migrations, ""), "re-apply should be idempotent")
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestApplyDoesNotRecordFailedMigration(t *testing.T) {
	db := openInMemoryDB(t)

	bad := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREAT table things(id INT);"),
		},
	}
	require.Error(t, Apply(context.Background(), db, bad, ""))
	assert.EqualValues(t, 0, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))

	good := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);"),
		},
	}
	require.NoError(t, Apply(context.Background(), db, good, ""))
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestApplyRespectsMigrationRoot(t *testing.T) {
	db := openInMemoryDB(t)

	migrations := fstest.MapFS{
		"sqlite/001_events.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE event_rows(id TEXT PRIMARY KEY);"),
		},
	}
	require.NoError(t, Apply(context.Background(), db, migrations, "sqlite"))

	var key string
	require.NoError(t, db.QueryRow("SELECT name FROM schema_migrations LIMIT 1").Scan(&key))
	assert.Equal(t, "sqlite/001_events.sql", key)
	assert.True(t, tableExists(t, db, "event_rows"))
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	body := `
-- users
CREATE TABLE a (
    id INTEGER
);
CREATE INDEX idx_a ON a (id); CREATE TABLE b (id INTEGER);
`
	got := SplitStatements(body)
	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (\n    id INTEGER\n)", got[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", got[1])
	assert.Equal(t, "CREATE TABLE b (id INTEGER)", got[2])
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "\nSELECT 1;\n", ExtractUpMigration("-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;"))
	assert.Equal(t, "SELECT 3;", ExtractUpMigration("SELECT 3;"))
}

func openInMemoryDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func queryInt64(t *testing.T, db *bun.DB, query string) int64 {
	t.Helper()
	var value int64
	require.NoError(t, db.QueryRow(query).Scan(&value))
	return value
}

func tableExists(t *testing.T, db *bun.DB, tableName string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tableName).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return name == tableName
}
