package models

import (
	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/google/uuid"
)

// SupplierRatingModel is the persistence model for a supplier rating.
// purchase_order_id is unique: one rating per order.
type SupplierRatingModel struct {
	Record
	SupplierID          uuid.UUID `gorm:"type:uuid;not null;index"`
	PurchaseOrderID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_ratings_purchase_order"`
	Rating              int       `gorm:"not null"`
	QualityRating       *int
	DeliveryRating      *int
	CommunicationRating *int
	Comments            string `gorm:"type:text"`
	RatedBy             string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (SupplierRatingModel) TableName() string {
	return "supplier_ratings"
}

// ToDomain converts the persistence model to a domain SupplierRating.
func (m *SupplierRatingModel) ToDomain() *partner.SupplierRating {
	return &partner.SupplierRating{
		BaseEntity:      m.entity(),
		SupplierID:      m.SupplierID,
		PurchaseOrderID: m.PurchaseOrderID,
		Scores: partner.Scores{
			Overall:       m.Rating,
			Quality:       m.QualityRating,
			Delivery:      m.DeliveryRating,
			Communication: m.CommunicationRating,
		},
		Comments: m.Comments,
		RatedBy:  m.RatedBy,
	}
}

// SupplierRatingModelFromDomain creates a persistence model from a domain SupplierRating.
func SupplierRatingModelFromDomain(r *partner.SupplierRating) *SupplierRatingModel {
	m := &SupplierRatingModel{
		Record:              recordOf(r.BaseEntity),
		SupplierID:          r.SupplierID,
		PurchaseOrderID:     r.PurchaseOrderID,
		Rating:              r.Scores.Overall,
		QualityRating:       r.Scores.Quality,
		DeliveryRating:      r.Scores.Delivery,
		CommunicationRating: r.Scores.Communication,
		Comments:            r.Comments,
		RatedBy:             r.RatedBy,
	}
	return m
}
