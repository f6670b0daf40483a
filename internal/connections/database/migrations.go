package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id                UUID        PRIMARY KEY,
		order_source      INTEGER     NOT NULL,
		location          INTEGER     NOT NULL DEFAULT 0,
		loyalty_member_id UUID        NOT NULL,
		order_status      INTEGER     NOT NULL,
		placed_at         TIMESTAMPTZ NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS line_items (
		id               UUID          PRIMARY KEY,
		item_type        INTEGER       NOT NULL,
		name             TEXT          NOT NULL,
		price            NUMERIC       NOT NULL,
		item_status      INTEGER       NOT NULL,
		is_barista_order BOOLEAN       NOT NULL,
		order_id         UUID          NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		line_no          INTEGER       NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_line_items_order_id ON line_items(order_id, line_no)`,
}

// Prices are kept as TEXT so decimal values round-trip exactly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id                TEXT      PRIMARY KEY,
		order_source      INTEGER   NOT NULL,
		location          INTEGER   NOT NULL DEFAULT 0,
		loyalty_member_id TEXT      NOT NULL,
		order_status      INTEGER   NOT NULL,
		placed_at         TIMESTAMP NOT NULL,
		created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS line_items (
		id               TEXT    PRIMARY KEY,
		item_type        INTEGER NOT NULL,
		name             TEXT    NOT NULL,
		price            TEXT    NOT NULL,
		item_status      INTEGER NOT NULL,
		is_barista_order BOOLEAN NOT NULL,
		order_id         TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		line_no          INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_line_items_order_id ON line_items(order_id, line_no)`,
}

// Migrate creates the orders and line_items tables. Safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := postgresSchema
	if db.DriverName() == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
