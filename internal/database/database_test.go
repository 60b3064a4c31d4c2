package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifiedRow struct {
	RowKey      string  `db:"row_key"`
	ProjectName string  `db:"project_name"`
	Location    string  `db:"location"`
	Confidence  float64 `db:"confidence"`
	FirstSeen   string  `db:"first_seen"`
}

func openTestDB(t *testing.T) DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "journal.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))

	var applied []struct {
		Filename string `db:"filename"`
	}
	require.NoError(t, db.Select(context.Background(), &applied, `SELECT filename FROM schema_migrations`))
	require.Len(t, applied, 1)
	assert.Equal(t, "001_journal.sql", applied[0].Filename)
	assert.Equal(t, "sqlite", db.Driver())
}

func TestInsertIgnoreAndGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	row := notifiedRow{RowKey: "P|a.c:1", ProjectName: "P", Location: "a.c:1", Confidence: 0.8, FirstSeen: "2024-01-01T00:00:00Z"}

	inserted, err := db.InsertIgnore(ctx, "notified_rows", row)
	require.NoError(t, err)
	assert.True(t, inserted)

	row.Confidence = 0.9
	inserted, err = db.InsertIgnore(ctx, "notified_rows", row)
	require.NoError(t, err)
	assert.False(t, inserted)

	var got notifiedRow
	require.NoError(t, db.Get(ctx, &got, `SELECT * FROM notified_rows WHERE row_key = ?`, "P|a.c:1"))
	assert.Equal(t, 0.8, got.Confidence)

	err = db.Get(ctx, &got, `SELECT * FROM notified_rows WHERE row_key = ?`, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "postgres"})
	require.Error(t, err)
}

func TestMySQLRequiresDSN(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}

func TestMySQLAdapt(t *testing.T) {
	out := mysqlAdapt("id INTEGER PRIMARY KEY AUTOINCREMENT,\n confidence REAL NOT NULL")
	assert.Contains(t, out, "INT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	assert.Contains(t, out, "confidence DOUBLE NOT NULL")
	assert.False(t, strings.Contains(out, "AUTOINCREMENT"))

	assert.Equal(t, "u:p@tcp(h)/db?parseTime=true", mysqlDSN("u:p@tcp(h)/db"))
	assert.Equal(t, "u:p@tcp(h)/db?x=1&parseTime=true", mysqlDSN("u:p@tcp(h)/db?x=1"))
}
