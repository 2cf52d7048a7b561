package procurement

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/trade"
)

// TransactionScope provides transactional access to procurement repositories.
// Every repository handed to fn shares one database transaction which is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
//
// The audit repository and aggregate engine are part of the scope so that a
// state change, its audit entry and any derived supplier figures commit together.
type TransactionalRepositories interface {
	// Suppliers returns the supplier repository scoped to the current transaction
	Suppliers() partner.SupplierRepository
	// Orders returns the purchase order repository scoped to the current transaction
	Orders() trade.PurchaseOrderRepository
	// Ratings returns the rating repository scoped to the current transaction
	Ratings() partner.RatingRepository
	// Audit returns the append-only audit repository scoped to the current transaction
	Audit() audit.Repository
	// Aggregates returns the supplier aggregate engine scoped to the current transaction
	Aggregates() partner.AggregateEngine
}
