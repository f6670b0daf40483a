package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"coffeeshop-counter/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"

	sqlitePrefix = "sqlite:"
)

// Options tune the connect loop; zero values fall back to the defaults below.
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	PingTTL    time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 10
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.PingTTL <= 0 {
		o.PingTTL = 5 * time.Second
	}
	return o
}

// DriverAndDSN maps the configured URL onto a registered database/sql driver.
// postgres:// URLs go to pgx, sqlite:<path> to the pure-Go SQLite driver.
func DriverAndDSN(url string) (driver, dsn string) {
	if path, ok := strings.CutPrefix(url, sqlitePrefix); ok {
		if path == "" || path == ":memory:" {
			return DriverSQLite, "file::memory:?_pragma=foreign_keys(on)"
		}
		return DriverSQLite, fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)
	}
	return DriverPostgres, url
}

// ConnectDB opens the store and waits until it answers a ping, retrying while
// the database is still starting up.
func ConnectDB(ctx context.Context, cfg config.DatabaseConfig, opts Options) (*sqlx.DB, error) {
	opts = opts.withDefaults()
	driver, dsn := DriverAndDSN(cfg.URL)

	var (
		db  *sqlx.DB
		err error
	)
	for i := 1; i <= opts.MaxRetries; i++ {
		db, err = sqlx.Open(driver, dsn)
		if err != nil {
			select {
			case <-time.After(opts.RetryDelay):
				continue
			case <-ctx.Done():
				return nil, fmt.Errorf("db open canceled: %w", ctx.Err())
			}
		}
		configurePool(db, driver, cfg.MaxConns)

		pctx, cancel := context.WithTimeout(ctx, opts.PingTTL)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			return db, nil
		}

		_ = db.Close()

		select {
		case <-time.After(opts.RetryDelay):
			continue
		case <-ctx.Done():
			return nil, fmt.Errorf("db ping canceled: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", opts.MaxRetries, err)
}

func configurePool(db *sqlx.DB, driver string, maxConns int) {
	if driver == DriverSQLite {
		// one writer; an in-memory database also lives on a single connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
}
