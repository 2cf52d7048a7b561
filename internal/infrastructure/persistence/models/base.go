package models

import (
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
)

// Record holds the columns every table shares
type Record struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func recordOf(e shared.BaseEntity) Record {
	return Record{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (r Record) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// VersionedRecord adds the optimistic concurrency column of suppliers and
// purchase orders. Repositories only write it through a version-checked
// UPDATE.
type VersionedRecord struct {
	Record
	Version int `gorm:"not null;default:1"`
}

func versionedOf(a shared.BaseAggregateRoot) VersionedRecord {
	return VersionedRecord{Record: recordOf(a.BaseEntity), Version: a.Version}
}

func (r VersionedRecord) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: r.entity(), Version: r.Version}
}
