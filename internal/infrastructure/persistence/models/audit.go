package models

import (
	"time"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEntryModel is the persistence model for an audit entry. supplier_id
// carries no foreign key so entries survive supplier deletion.
type AuditEntryModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key"`
	SupplierID uuid.UUID         `gorm:"type:uuid;not null;index:idx_audit_entries_supplier_created,priority:1"`
	Actor      string            `gorm:"type:varchar(255);not null"`
	Action     string            `gorm:"type:varchar(64);not null"`
	Details    datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;index:idx_audit_entries_supplier_created,priority:2"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// ToDomain converts the persistence model to a domain audit Entry.
func (m *AuditEntryModel) ToDomain() audit.Entry {
	details := audit.Details{}
	for k, v := range m.Details {
		details[k] = v
	}
	return audit.Entry{
		ID:         m.ID,
		SupplierID: m.SupplierID,
		Actor:      m.Actor,
		Action:     m.Action,
		Details:    details,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditEntryModelFromDomain creates a persistence model from a domain audit Entry.
func AuditEntryModelFromDomain(e *audit.Entry) *AuditEntryModel {
	details := datatypes.JSONMap{}
	for k, v := range e.Details {
		details[k] = v
	}
	return &AuditEntryModel{
		ID:         e.ID,
		SupplierID: e.SupplierID,
		Actor:      e.Actor,
		Action:     e.Action,
		Details:    details,
		CreatedAt:  e.CreatedAt,
	}
}
