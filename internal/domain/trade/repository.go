package trade

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFilter narrows purchase order listings
type OrderFilter struct {
	shared.Pagination
	shared.Sort
	SupplierID       *uuid.UUID
	Status           *Status
	SupplierResponse *SupplierResponse
}

// OrderStats counts orders per status for one supplier or all of them
type OrderStats struct {
	Total       int64
	ByStatus    map[Status]int64
	TotalAmount decimal.Decimal
}

// PurchaseOrderRepository defines persistence operations for purchase orders
type PurchaseOrderRepository interface {
	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate loads an order with its items and locks the order row
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// List returns a page of orders, newest first, and the total count
	List(ctx context.Context, filter OrderFilter) ([]PurchaseOrder, int64, error)

	// ListPendingForSupplier returns orders still awaiting the supplier's answer
	ListPendingForSupplier(ctx context.Context, supplierID uuid.UUID) ([]PurchaseOrder, error)

	// CountBySupplier counts the orders referencing a supplier
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)

	// Stats aggregates order counts per status
	Stats(ctx context.Context, supplierID *uuid.UUID) (*OrderStats, error)

	// Create inserts an order and its items; a duplicate number is a conflict
	Create(ctx context.Context, po *PurchaseOrder) error

	// SaveWithLock writes mutable fields if the stored version still equals
	// po.Version and advances it by one
	SaveWithLock(ctx context.Context, po *PurchaseOrder) error

	// ReplaceItems deletes and re-inserts the order's items
	ReplaceItems(ctx context.Context, po *PurchaseOrder) error

	// Delete removes an order; items cascade
	Delete(ctx context.Context, id uuid.UUID) error
}
