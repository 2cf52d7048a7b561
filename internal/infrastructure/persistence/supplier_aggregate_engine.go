package persistence

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAggregateEngine maintains the derived performance columns of a
// supplier. Each method is a single UPDATE evaluated against the current row
// inside the caller's transaction.
//
// The supplier version is left untouched.
type GormAggregateEngine struct {
	db *gorm.DB
}

// NewGormAggregateEngine creates a new GormAggregateEngine
func NewGormAggregateEngine(db *gorm.DB) *GormAggregateEngine {
	return &GormAggregateEngine{db: db}
}

// RecomputeRatings recalculates average_rating and total_ratings from the
// rating rows currently visible in the transaction
func (e *GormAggregateEngine) RecomputeRatings(ctx context.Context, supplierID uuid.UUID) error {
	result := e.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ?", supplierID).
		UpdateColumns(map[string]any{
			"average_rating": gorm.Expr("COALESCE((SELECT AVG(r.rating) FROM supplier_ratings r WHERE r.supplier_id = ?), 0)", supplierID),
			"total_ratings":  gorm.Expr("(SELECT COUNT(*) FROM supplier_ratings r WHERE r.supplier_id = ?)", supplierID),
		})
	if result.Error != nil {
		return translateError(result.Error, "supplier", supplierID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("supplier", supplierID)
	}
	return nil
}

// RecordDelivery folds one delivery into the counters and the running mean
// of delivery days
func (e *GormAggregateEngine) RecordDelivery(ctx context.Context, supplierID uuid.UUID, record partner.DeliveryRecord) error {
	onTime, late := 1, 0
	if !record.OnTime {
		onTime, late = 0, 1
	}
	days := record.DeliveryDays.Round(2).String()

	result := e.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ?", supplierID).
		UpdateColumns(map[string]any{
			"average_delivery_days": gorm.Expr("(average_delivery_days * total_orders + ?) * 1.0 / (total_orders + 1)", days),
			"total_orders":          gorm.Expr("total_orders + 1"),
			"on_time_deliveries":    gorm.Expr("on_time_deliveries + ?", onTime),
			"late_deliveries":       gorm.Expr("late_deliveries + ?", late),
			"last_delivery_date":    record.DeliveredAt.UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "supplier", supplierID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("supplier", supplierID)
	}
	return nil
}

var _ partner.AggregateEngine = (*GormAggregateEngine)(nil)
