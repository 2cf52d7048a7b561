package partner

import (
	"context"
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierFilter narrows supplier listings
type SupplierFilter struct {
	shared.Pagination
	shared.Sort
	Search   string
	IsActive *bool
}

// SupplierRepository defines persistence operations for suppliers
type SupplierRepository interface {
	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByIDForUpdate finds a supplier and locks its row for the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByEmail finds a supplier by its (case-insensitive) email
	FindByEmail(ctx context.Context, email string) (*Supplier, error)

	// FindByAsgardeoSub finds a supplier linked to an identity provider subject
	FindByAsgardeoSub(ctx context.Context, sub string) (*Supplier, error)

	// ExistsByEmail reports whether another supplier uses email
	ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)

	// ExistsByAsgardeoSub reports whether another supplier is linked to sub
	ExistsByAsgardeoSub(ctx context.Context, sub string, excludeID *uuid.UUID) (bool, error)

	// List returns a page of suppliers, newest first, and the total count
	List(ctx context.Context, filter SupplierFilter) ([]Supplier, int64, error)

	// Create inserts a new supplier
	Create(ctx context.Context, supplier *Supplier) error

	// SaveWithLock writes profile fields if the stored version still equals
	// supplier.Version and advances it by one
	SaveWithLock(ctx context.Context, supplier *Supplier) error

	// Delete removes a supplier; fails with a conflict while orders reference it
	Delete(ctx context.Context, id uuid.UUID) error
}

// RatingRepository defines persistence operations for supplier ratings
type RatingRepository interface {
	// FindByID finds a rating by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierRating, error)

	// ExistsForOrder reports whether a purchase order already has a rating
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Create inserts a rating; a second rating for the same order is a conflict
	Create(ctx context.Context, rating *SupplierRating) error

	// Save updates the scores and comments of a rating
	Save(ctx context.Context, rating *SupplierRating) error

	// Delete removes a rating
	Delete(ctx context.Context, id uuid.UUID) error

	// ListBySupplier returns ratings newest first, joined with their order
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]RatingWithOrder, error)

	// StatsBySupplier aggregates a supplier's ratings per axis
	StatsBySupplier(ctx context.Context, supplierID uuid.UUID) (*RatingStats, error)
}

// DeliveryRecord is the outcome of one received order
type DeliveryRecord struct {
	DeliveredAt  time.Time
	OnTime       bool
	DeliveryDays decimal.Decimal
}

// AggregateEngine recomputes a supplier's derived performance fields inside
// the caller's transaction
type AggregateEngine interface {
	// RecomputeRatings sets average_rating and total_ratings from the rating rows
	RecomputeRatings(ctx context.Context, supplierID uuid.UUID) error

	// RecordDelivery folds one delivery into the delivery counters and running mean
	RecordDelivery(ctx context.Context, supplierID uuid.UUID, record DeliveryRecord) error
}
