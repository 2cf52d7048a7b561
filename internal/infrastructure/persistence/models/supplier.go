package models

import (
	"time"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// SupplierModel is the persistence model for the Supplier aggregate.
type SupplierModel struct {
	VersionedRecord
	Name                string          `gorm:"type:varchar(255);not null"`
	ContactPerson       string          `gorm:"type:varchar(255)"`
	Email               string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_suppliers_email"`
	Phone               string          `gorm:"type:varchar(50)"`
	Address             string          `gorm:"type:text"`
	Country             string          `gorm:"type:varchar(100)"`
	PaymentTerms        string          `gorm:"type:varchar(255)"`
	AsgardeoSub         *string         `gorm:"type:varchar(255);uniqueIndex:idx_suppliers_asgardeo_sub"`
	IsActive            bool            `gorm:"not null;default:true"`
	TotalOrders         int             `gorm:"not null;default:0"`
	OnTimeDeliveries    int             `gorm:"not null;default:0"`
	LateDeliveries      int             `gorm:"not null;default:0"`
	AverageDeliveryDays decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	LastDeliveryDate    *time.Time
	AverageRating       decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0"`
	TotalRatings        int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier.
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		ContactPerson:     m.ContactPerson,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		Country:           m.Country,
		PaymentTerms:      m.PaymentTerms,
		AsgardeoSub:       m.AsgardeoSub,
		IsActive:          m.IsActive,
		Performance: partner.Performance{
			TotalOrders:         m.TotalOrders,
			OnTimeDeliveries:    m.OnTimeDeliveries,
			LateDeliveries:      m.LateDeliveries,
			AverageDeliveryDays: m.AverageDeliveryDays.Round(2),
			LastDeliveryDate:    m.LastDeliveryDate,
			AverageRating:       m.AverageRating.Round(2),
			TotalRatings:        m.TotalRatings,
		},
	}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier.
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{
		VersionedRecord:     versionedOf(s.BaseAggregateRoot),
		Name:                s.Name,
		ContactPerson:       s.ContactPerson,
		Email:               s.Email,
		Phone:               s.Phone,
		Address:             s.Address,
		Country:             s.Country,
		PaymentTerms:        s.PaymentTerms,
		AsgardeoSub:         s.AsgardeoSub,
		IsActive:            s.IsActive,
		TotalOrders:         s.Performance.TotalOrders,
		OnTimeDeliveries:    s.Performance.OnTimeDeliveries,
		LateDeliveries:      s.Performance.LateDeliveries,
		AverageDeliveryDays: s.Performance.AverageDeliveryDays,
		LastDeliveryDate:    s.Performance.LastDeliveryDate,
		AverageRating:       s.Performance.AverageRating,
		TotalRatings:        s.Performance.TotalRatings,
	}
	return m
}

// ProfileColumns returns the columns a profile update may write. Derived
// performance columns are owned by the aggregate engine and never included.
func (m *SupplierModel) ProfileColumns() map[string]any {
	return map[string]any{
		"name":           m.Name,
		"contact_person": m.ContactPerson,
		"email":          m.Email,
		"phone":          m.Phone,
		"address":        m.Address,
		"country":        m.Country,
		"payment_terms":  m.PaymentTerms,
		"asgardeo_sub":   m.AsgardeoSub,
		"is_active":      m.IsActive,
		"updated_at":     m.UpdatedAt,
	}
}
