package persistence

import (
	"context"
	"strings"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "supplier", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a supplier and takes a row lock until the
// surrounding transaction ends
func (r *GormSupplierRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "supplier", id)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a supplier by email
func (r *GormSupplierRepository) FindByEmail(ctx context.Context, email string) (*partner.Supplier, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewValidationError("email cannot be empty")
	}
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, translateError(err, "supplier", email)
	}
	return model.ToDomain(), nil
}

// FindByAsgardeoSub finds the supplier linked to an identity provider subject
func (r *GormSupplierRepository) FindByAsgardeoSub(ctx context.Context, sub string) (*partner.Supplier, error) {
	if sub == "" {
		return nil, shared.NewValidationError("subject cannot be empty")
	}
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).Where("asgardeo_sub = ?", sub).First(&model).Error; err != nil {
		return nil, translateError(err, "supplier", sub)
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks whether another supplier uses the email
func (r *GormSupplierRepository) ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.SupplierModel{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, "supplier", email)
	}
	return count > 0, nil
}

// ExistsByAsgardeoSub checks whether another supplier is linked to the subject
func (r *GormSupplierRepository) ExistsByAsgardeoSub(ctx context.Context, sub string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.SupplierModel{}).Where("asgardeo_sub = ?", sub)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, "supplier", sub)
	}
	return count > 0, nil
}

// List returns a page of suppliers matching the filter, newest first
func (r *GormSupplierRepository) List(ctx context.Context, filter partner.SupplierFilter) ([]partner.Supplier, int64, error) {
	page := filter.Pagination.Normalize()

	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&models.SupplierModel{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "supplier", "list")
	}

	var rows []models.SupplierModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SupplierModel{}), filter)
	if err := query.
		Order(orderBy(filter.Sort, SupplierSortFields)).Order("id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "supplier", "list")
	}

	suppliers := make([]partner.Supplier, len(rows))
	for i := range rows {
		suppliers[i] = *rows[i].ToDomain()
	}
	return suppliers, total, nil
}

// applyFilter applies search and activity filters. The search is a
// case-insensitive substring match on name and email.
func (r *GormSupplierRepository) applyFilter(query *gorm.DB, filter partner.SupplierFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	model := models.SupplierModelFromDomain(supplier)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "supplier", supplier.ID)
	}
	return nil
}

// SaveWithLock writes the profile columns guarded by the loaded version and
// advances the version by one. Zero affected rows means another writer won.
func (r *GormSupplierRepository) SaveWithLock(ctx context.Context, supplier *partner.Supplier) error {
	model := models.SupplierModelFromDomain(supplier)
	columns := model.ProfileColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ? AND version = ?", supplier.ID, supplier.Version).
		Updates(columns)
	if result.Error != nil {
		return translateError(result.Error, "supplier", supplier.ID)
	}
	if result.RowsAffected == 0 {
		return r.conflictOrMissing(ctx, supplier.ID, supplier.Version)
	}
	supplier.MarkPersisted(supplier.Version + 1)
	return nil
}

func (r *GormSupplierRepository) conflictOrMissing(ctx context.Context, id uuid.UUID, expected int) error {
	var current models.SupplierModel
	if err := r.db.WithContext(ctx).Select("id", "version").First(&current, "id = ?", id).Error; err != nil {
		return translateError(err, "supplier", id)
	}
	return shared.NewVersionConflictError(expected, current.Version)
}

// Delete removes a supplier. Purchase orders restrict the delete.
func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SupplierModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "supplier", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("supplier", id)
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
