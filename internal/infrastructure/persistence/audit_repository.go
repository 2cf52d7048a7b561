package persistence

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM. It only ever
// inserts and reads.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append stores an entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	model := models.AuditEntryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "audit entry", entry.ID)
	}
	return nil
}

// ListBySupplier returns a supplier's entries ascending by creation time
func (r *GormAuditRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]audit.Entry, error) {
	var rows []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "audit entry", supplierID)
	}
	entries := make([]audit.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
