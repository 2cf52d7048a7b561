package persistence

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "purchase order", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads an order and locks its row for the transaction
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", orderItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "purchase order", id)
	}
	return model.ToDomain(), nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("sku ASC").Order("id ASC")
}

// List returns a page of orders, newest first
func (r *GormPurchaseOrderRepository) List(ctx context.Context, filter trade.OrderFilter) ([]trade.PurchaseOrder, int64, error) {
	page := filter.Pagination.Normalize()

	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "purchase order", "list")
	}

	var rows []models.PurchaseOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)
	if err := query.
		Preload("Items", orderItems).
		Order(orderBy(filter.Sort, PurchaseOrderSortFields)).Order("id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "purchase order", "list")
	}
	return toDomainOrders(rows), total, nil
}

func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter trade.OrderFilter) *gorm.DB {
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SupplierResponse != nil {
		query = query.Where("supplier_response = ?", *filter.SupplierResponse)
	}
	return query
}

// ListPendingForSupplier returns orders awaiting the supplier's response, newest first
func (r *GormPurchaseOrderRepository) ListPendingForSupplier(ctx context.Context, supplierID uuid.UUID) ([]trade.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("supplier_id = ? AND supplier_response = ?", supplierID, trade.ResponsePending).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "purchase order", supplierID)
	}
	return toDomainOrders(rows), nil
}

// CountBySupplier counts the orders referencing a supplier
func (r *GormPurchaseOrderRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "purchase order", supplierID)
	}
	return count, nil
}

type statusCountRow struct {
	Status trade.Status
	Count  int64
	Amount decimal.Decimal
}

// Stats counts orders per status and sums their amounts. Every known status
// is present in the result, zero if no order has it.
func (r *GormPurchaseOrderRepository) Stats(ctx context.Context, supplierID *uuid.UUID) (*trade.OrderStats, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status")
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}

	var rows []statusCountRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, translateError(err, "purchase order", "stats")
	}

	stats := &trade.OrderStats{
		ByStatus:    make(map[trade.Status]int64, len(trade.AllStatuses)),
		TotalAmount: decimal.Zero,
	}
	for _, s := range trade.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
		stats.TotalAmount = stats.TotalAmount.Add(row.Amount)
	}
	stats.TotalAmount = stats.TotalAmount.Round(2)
	return stats, nil
}

// Create inserts an order and its items inside a nested transaction, which
// gorm turns into a savepoint when already inside one. A failed insert
// therefore leaves the outer transaction usable for a retry.
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, po *trade.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(po)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		return translateError(err, "purchase order", po.PONumber)
	}
	return nil
}

// SaveWithLock writes the mutable columns guarded by the loaded version and
// advances the version by one
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *trade.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(po)
	columns := model.MutableColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", po.ID, po.Version).
		Updates(columns)
	if result.Error != nil {
		return translateError(result.Error, "purchase order", po.ID)
	}
	if result.RowsAffected == 0 {
		var current models.PurchaseOrderModel
		if err := r.db.WithContext(ctx).Select("id", "version").First(&current, "id = ?", po.ID).Error; err != nil {
			return translateError(err, "purchase order", po.ID)
		}
		return shared.NewVersionConflictError(po.Version, current.Version)
	}
	po.MarkPersisted(po.Version + 1)
	return nil
}

// ReplaceItems deletes the stored items of an order and inserts the current ones
func (r *GormPurchaseOrderRepository) ReplaceItems(ctx context.Context, po *trade.PurchaseOrder) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("purchase_order_id = ?", po.ID).Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return translateError(err, "purchase order item", po.ID)
	}
	if len(po.Items) == 0 {
		return nil
	}
	items := models.PurchaseOrderItemModelsFromDomain(po.Items)
	if err := db.Create(&items).Error; err != nil {
		return translateError(err, "purchase order item", po.ID)
	}
	return nil
}

// Delete removes an order and its items
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return translateError(err, "purchase order item", id)
	}
	result := db.Delete(&models.PurchaseOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "purchase order", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("purchase order", id)
	}
	return nil
}

func toDomainOrders(rows []models.PurchaseOrderModel) []trade.PurchaseOrder {
	orders := make([]trade.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
