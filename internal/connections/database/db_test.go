package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop-counter/internal/config"
)

func TestDriverAndDSN(t *testing.T) {
	driver, dsn := DriverAndDSN("postgres://u:p@db:5432/counter")
	assert.Equal(t, DriverPostgres, driver)
	assert.Equal(t, "postgres://u:p@db:5432/counter", dsn)

	driver, dsn = DriverAndDSN("sqlite::memory:")
	assert.Equal(t, DriverSQLite, driver)
	assert.Contains(t, dsn, ":memory:")

	driver, dsn = DriverAndDSN("sqlite:/var/lib/counter.db")
	assert.Equal(t, DriverSQLite, driver)
	assert.Contains(t, dsn, "file:/var/lib/counter.db?")
	assert.Contains(t, dsn, "foreign_keys(on)")
}

func TestConnectDB_SQLiteAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counter.db")

	db, err := ConnectDB(ctx, config.DatabaseConfig{URL: "sqlite:" + path}, Options{})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
	// idempotent
	require.NoError(t, Migrate(ctx, db))

	var n int
	require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM line_items`))
	assert.Zero(t, n)
}

func TestConnectDB_GivesUpWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := ConnectDB(ctx, config.DatabaseConfig{URL: "postgres://nobody:x@127.0.0.1:1/none?connect_timeout=1"},
		Options{MaxRetries: 3, RetryDelay: time.Second, PingTTL: 100 * time.Millisecond})
	assert.Error(t, err)
}

func TestSchema_PricesKeepFullPrecision(t *testing.T) {
	pg := strings.Join(postgresSchema, "\n")
	assert.Contains(t, pg, "price            NUMERIC       NOT NULL")
	assert.NotContains(t, pg, "NUMERIC(")
	assert.Contains(t, strings.Join(sqliteSchema, "\n"), "price            TEXT")
}
