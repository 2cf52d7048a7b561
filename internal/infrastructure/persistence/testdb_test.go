package persistence

import (
	"testing"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory SQLite database with foreign keys on
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := Open(persistencetest.Dialector())
	require.NoError(t, err)
	persistencetest.Prepare(t, d.DB)
	return d.DB
}

func seedSupplier(t *testing.T, db *gorm.DB, name, email string) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier(name, email)
	require.NoError(t, err)
	require.NoError(t, NewGormSupplierRepository(db).Create(t.Context(), s))
	return s
}

func seedOrder(t *testing.T, db *gorm.DB, supplierID uuid.UUID, items ...trade.ItemInput) *trade.PurchaseOrder {
	t.Helper()
	po, err := trade.NewPurchaseOrder(supplierID, trade.CreateInput{Items: items})
	require.NoError(t, err)
	number, err := trade.NewOrderNumber(po.CreatedAt)
	require.NoError(t, err)
	po.AssignNumber(number)
	require.NoError(t, NewGormPurchaseOrderRepository(db).Create(t.Context(), po))
	return po
}

func seedReceivedOrder(t *testing.T, db *gorm.DB, supplierID uuid.UUID) *trade.PurchaseOrder {
	t.Helper()
	po := seedOrder(t, db, supplierID)
	require.NoError(t, db.Exec("UPDATE purchase_orders SET status = ? WHERE id = ?", trade.StatusReceived, po.ID).Error)
	po.Status = trade.StatusReceived
	return po
}
