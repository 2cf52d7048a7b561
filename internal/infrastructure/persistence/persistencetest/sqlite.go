// Package persistencetest provides an SQLite schema for tests that need
// real repositories without a PostgreSQL server.
package persistencetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqliteSchema mirrors migrations/ for SQLite: same columns, same unique and
// foreign key constraints.
var sqliteSchema = []string{
	`CREATE TABLE suppliers (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		name TEXT NOT NULL,
		contact_person TEXT,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		address TEXT,
		country TEXT,
		payment_terms TEXT,
		asgardeo_sub TEXT UNIQUE,
		is_active INTEGER NOT NULL DEFAULT 1,
		total_orders INTEGER NOT NULL DEFAULT 0,
		on_time_deliveries INTEGER NOT NULL DEFAULT 0,
		late_deliveries INTEGER NOT NULL DEFAULT 0,
		average_delivery_days NUMERIC NOT NULL DEFAULT 0,
		last_delivery_date DATETIME,
		average_rating NUMERIC NOT NULL DEFAULT 0,
		total_ratings INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE purchase_orders (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		po_number TEXT NOT NULL UNIQUE,
		supplier_id TEXT NOT NULL REFERENCES suppliers(id) ON DELETE RESTRICT,
		total_amount NUMERIC NOT NULL DEFAULT 0,
		order_date DATETIME NOT NULL,
		expected_delivery_date DATETIME,
		actual_delivery_date DATETIME,
		estimated_delivery_date DATETIME,
		status TEXT NOT NULL DEFAULT 'draft',
		supplier_response TEXT NOT NULL DEFAULT 'pending',
		requested_quantity INTEGER,
		approved_quantity INTEGER,
		rejection_reason TEXT,
		tracking_number TEXT,
		notes TEXT,
		supplier_notes TEXT,
		responded_at DATETIME
	)`,
	`CREATE TABLE purchase_order_items (
		id TEXT PRIMARY KEY,
		purchase_order_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL,
		sku TEXT NOT NULL,
		product_name TEXT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC NOT NULL,
		line_total NUMERIC NOT NULL
	)`,
	`CREATE TABLE supplier_ratings (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		supplier_id TEXT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
		purchase_order_id TEXT NOT NULL UNIQUE REFERENCES purchase_orders(id) ON DELETE RESTRICT,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		quality_rating INTEGER,
		delivery_rating INTEGER,
		communication_rating INTEGER,
		comments TEXT,
		rated_by TEXT
	)`,
	`CREATE TABLE audit_entries (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		created_at DATETIME NOT NULL
	)`,
}

// DSN returns a fresh private in-memory SQLite database name with foreign
// keys enabled
func DSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
}

// Dialector opens the database named by DSN
func Dialector() gorm.Dialector {
	return sqlite.Open(DSN())
}

// Prepare pins db to one connection, closes it when t ends and creates the
// schema. A single connection keeps every query on the same in-memory database.
func Prepare(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
}
