package persistence

import (
	"context"
	"time"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormRatingRepository implements partner.RatingRepository using GORM
type GormRatingRepository struct {
	db *gorm.DB
}

// NewGormRatingRepository creates a new GormRatingRepository
func NewGormRatingRepository(db *gorm.DB) *GormRatingRepository {
	return &GormRatingRepository{db: db}
}

// FindByID finds a rating by ID
func (r *GormRatingRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.SupplierRating, error) {
	var model models.SupplierRatingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "rating", id)
	}
	return model.ToDomain(), nil
}

// ExistsForOrder checks whether a purchase order already carries a rating
func (r *GormRatingRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SupplierRatingModel{}).
		Where("purchase_order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, translateError(err, "rating", orderID)
	}
	return count > 0, nil
}

// Create inserts a rating. The unique index on purchase_order_id turns a
// concurrent second rating into a conflict.
func (r *GormRatingRepository) Create(ctx context.Context, rating *partner.SupplierRating) error {
	model := models.SupplierRatingModelFromDomain(rating)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "rating for purchase order", rating.PurchaseOrderID)
	}
	return nil
}

// Save updates the scores and comments of a rating
func (r *GormRatingRepository) Save(ctx context.Context, rating *partner.SupplierRating) error {
	model := models.SupplierRatingModelFromDomain(rating)
	result := r.db.WithContext(ctx).
		Model(&models.SupplierRatingModel{}).
		Where("id = ?", rating.ID).
		Updates(map[string]any{
			"rating":               model.Rating,
			"quality_rating":       model.QualityRating,
			"delivery_rating":      model.DeliveryRating,
			"communication_rating": model.CommunicationRating,
			"comments":             model.Comments,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "rating", rating.ID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("rating", rating.ID)
	}
	return nil
}

// Delete removes a rating
func (r *GormRatingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SupplierRatingModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "rating", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("rating", id)
	}
	return nil
}

type ratingWithOrderRow struct {
	models.SupplierRatingModel
	PONumber  string `gorm:"column:po_number"`
	OrderDate time.Time
}

// ListBySupplier returns a supplier's ratings newest first, joined with the
// rated order's number and date
func (r *GormRatingRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]partner.RatingWithOrder, error) {
	if limit <= 0 || limit > shared.MaxPageSize {
		limit = shared.MaxPageSize
	}
	var rows []ratingWithOrderRow
	if err := r.db.WithContext(ctx).
		Table("supplier_ratings").
		Select("supplier_ratings.*, purchase_orders.po_number, purchase_orders.order_date").
		Joins("JOIN purchase_orders ON purchase_orders.id = supplier_ratings.purchase_order_id").
		Where("supplier_ratings.supplier_id = ?", supplierID).
		Order("supplier_ratings.created_at DESC").Order("supplier_ratings.id DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, "rating", supplierID)
	}

	out := make([]partner.RatingWithOrder, len(rows))
	for i := range rows {
		out[i] = partner.RatingWithOrder{
			SupplierRating: *rows[i].SupplierRatingModel.ToDomain(),
			PONumber:       rows[i].PONumber,
			OrderDate:      rows[i].OrderDate,
		}
	}
	return out, nil
}

type ratingStatsRow struct {
	Total            int64
	AvgRating        decimal.NullDecimal
	AvgQuality       decimal.NullDecimal
	AvgDelivery      decimal.NullDecimal
	AvgCommunication decimal.NullDecimal
}

// StatsBySupplier aggregates a supplier's ratings per axis
func (r *GormRatingRepository) StatsBySupplier(ctx context.Context, supplierID uuid.UUID) (*partner.RatingStats, error) {
	var row ratingStatsRow
	if err := r.db.WithContext(ctx).
		Model(&models.SupplierRatingModel{}).
		Select(`COUNT(*) AS total,
			AVG(rating) AS avg_rating,
			AVG(quality_rating) AS avg_quality,
			AVG(delivery_rating) AS avg_delivery,
			AVG(communication_rating) AS avg_communication`).
		Where("supplier_id = ?", supplierID).
		Scan(&row).Error; err != nil {
		return nil, translateError(err, "rating", supplierID)
	}
	return &partner.RatingStats{
		TotalRatings:         row.Total,
		AverageRating:        roundedAverage(row.AvgRating),
		AverageQuality:       roundedAverage(row.AvgQuality),
		AverageDelivery:      roundedAverage(row.AvgDelivery),
		AverageCommunication: roundedAverage(row.AvgCommunication),
	}, nil
}

func roundedAverage(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal.Round(2)
	return &d
}

var _ partner.RatingRepository = (*GormRatingRepository)(nil)
