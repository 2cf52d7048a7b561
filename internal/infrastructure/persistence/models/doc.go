// Package models holds the GORM table models. Domain types stay free of
// tags; each model converts to and from its domain type.
//
// Tables: suppliers (with the derived performance columns), purchase_orders
// and purchase_order_items, supplier_ratings and the append-only
// audit_entries.
package models
