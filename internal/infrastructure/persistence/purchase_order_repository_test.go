package persistence

import (
	"testing"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(productID int64, sku string, qty int, price string) trade.ItemInput {
	return trade.ItemInput{
		ProductID: productID,
		SKU:       sku,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestGormPurchaseOrderRepository_CreateLoadsItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	s := seedSupplier(t, db, "Acme", "acme@example.com")

	po := seedOrder(t, db, s.ID, item(2, "SKU-B", 3, "2.50"), item(1, "SKU-A", 1, "10"))

	found, err := repo.FindByID(t.Context(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, po.PONumber, found.PONumber)
	assert.Equal(t, trade.StatusDraft, found.Status)
	assert.Equal(t, trade.ResponsePending, found.SupplierResponse)
	assert.True(t, decimal.RequireFromString("17.50").Equal(found.TotalAmount))
	require.Len(t, found.Items, 2)
	assert.Equal(t, "SKU-A", found.Items[0].SKU)
	assert.True(t, decimal.RequireFromString("7.50").Equal(found.Items[1].LineTotal))

	_, err = repo.FindByIDForUpdate(t.Context(), uuid.New())
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestGormPurchaseOrderRepository_DuplicateNumberIsConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	first := seedOrder(t, db, s.ID)

	second, err := trade.NewPurchaseOrder(s.ID, trade.CreateInput{})
	require.NoError(t, err)
	second.AssignNumber(first.PONumber)

	err = repo.Create(t.Context(), second)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	// the savepoint rolled back, so a fresh number goes through
	second.AssignNumber(first.PONumber + "-2")
	require.NoError(t, repo.Create(t.Context(), second))
}

func TestGormPurchaseOrderRepository_UnknownSupplierIsConflict(t *testing.T) {
	db := newTestDB(t)
	po, err := trade.NewPurchaseOrder(uuid.New(), trade.CreateInput{})
	require.NoError(t, err)
	po.AssignNumber("PO-1-ORPHAN")

	err = NewGormPurchaseOrderRepository(db).Create(t.Context(), po)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestGormPurchaseOrderRepository_ListAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := t.Context()

	a := seedSupplier(t, db, "A", "a@example.com")
	b := seedSupplier(t, db, "B", "b@example.com")
	seedOrder(t, db, a.ID)
	seedOrder(t, db, a.ID)
	seedReceivedOrder(t, db, b.ID)

	rows, total, err := repo.List(ctx, trade.OrderFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)

	rows, total, err = repo.List(ctx, trade.OrderFilter{SupplierID: &a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, po := range rows {
		assert.Equal(t, a.ID, po.SupplierID)
	}

	received := trade.StatusReceived
	rows, total, err = repo.List(ctx, trade.OrderFilter{Status: &received})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, rows[0].SupplierID)

	count, err := repo.CountBySupplier(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGormPurchaseOrderRepository_Stats(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := t.Context()

	a := seedSupplier(t, db, "A", "a@example.com")
	b := seedSupplier(t, db, "B", "b@example.com")
	seedOrder(t, db, a.ID, item(1, "X", 2, "5"))
	seedOrder(t, db, a.ID, item(1, "X", 1, "3.25"))
	seedReceivedOrder(t, db, b.ID)

	all, err := repo.Stats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
	assert.Len(t, all.ByStatus, len(trade.AllStatuses))
	assert.EqualValues(t, 2, all.ByStatus[trade.StatusDraft])
	assert.EqualValues(t, 1, all.ByStatus[trade.StatusReceived])
	assert.EqualValues(t, 0, all.ByStatus[trade.StatusCancelled])
	assert.True(t, decimal.RequireFromString("13.25").Equal(all.TotalAmount), all.TotalAmount.String())

	onlyB, err := repo.Stats(ctx, &b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, onlyB.Total)
	assert.EqualValues(t, 0, onlyB.ByStatus[trade.StatusDraft])

	empty, err := repo.Stats(ctx, new(uuid.UUID))
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.Total)
	assert.True(t, empty.TotalAmount.IsZero())
}

func TestGormPurchaseOrderRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	po := seedOrder(t, db, s.ID)

	first, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)

	changed, err := first.ChangeStatus(trade.StatusPending)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	_, err = stale.ChangeStatus(trade.StatusCancelled)
	require.NoError(t, err)
	err = repo.SaveWithLock(ctx, stale)
	assert.Equal(t, shared.KindVersionConflict, shared.KindOf(err))

	stored, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusPending, stored.Status)
	assert.Equal(t, 2, stored.Version)
}

func TestGormPurchaseOrderRepository_ReplaceItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	po := seedOrder(t, db, s.ID, item(1, "OLD", 1, "1"))

	require.NoError(t, po.ReplaceItems([]trade.ItemInput{item(7, "NEW-1", 2, "4"), item(8, "NEW-2", 1, "1")}))
	require.NoError(t, repo.ReplaceItems(ctx, po))
	require.NoError(t, repo.SaveWithLock(ctx, po))

	stored, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "NEW-1", stored.Items[0].SKU)
	assert.True(t, decimal.NewFromInt(9).Equal(stored.TotalAmount))

	require.NoError(t, po.ReplaceItems(nil))
	require.NoError(t, repo.ReplaceItems(ctx, po))
	stored, err = repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestGormPurchaseOrderRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	po := seedOrder(t, db, s.ID, item(1, "A", 1, "1"))

	require.NoError(t, repo.Delete(ctx, po.ID))

	var items int64
	require.NoError(t, db.Table("purchase_order_items").Where("purchase_order_id = ?", po.ID).Count(&items).Error)
	assert.Zero(t, items)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(repo.Delete(ctx, po.ID)))
}

func TestGormPurchaseOrderRepository_ListPendingForSupplier(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	other := seedSupplier(t, db, "Other", "other@example.com")

	waiting := seedOrder(t, db, s.ID)
	answered := seedOrder(t, db, s.ID)
	require.NoError(t, db.Exec("UPDATE purchase_orders SET supplier_response = ? WHERE id = ?",
		trade.ResponseRejected, answered.ID).Error)
	seedOrder(t, db, other.ID)

	rows, err := repo.ListPendingForSupplier(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, waiting.ID, rows[0].ID)
}
