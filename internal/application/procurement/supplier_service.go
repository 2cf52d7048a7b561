package procurement

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierService handles supplier profile operations
type SupplierService struct {
	base
	suppliers partner.SupplierRepository
	auditLog  audit.Repository
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(txScope TransactionScope, suppliers partner.SupplierRepository, auditLog audit.Repository) *SupplierService {
	return &SupplierService{
		base:      newBase(txScope),
		suppliers: suppliers,
		auditLog:  auditLog,
	}
}

// Create creates a supplier. Email and identity subject must be unused.
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := partner.NewSupplier(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	supplier.ContactPerson = strings.TrimSpace(req.ContactPerson)
	supplier.Phone = strings.TrimSpace(req.Phone)
	supplier.Address = strings.TrimSpace(req.Address)
	supplier.Country = strings.TrimSpace(req.Country)
	supplier.PaymentTerms = strings.TrimSpace(req.PaymentTerms)
	if req.AsgardeoSub != nil {
		supplier.LinkIdentity(*req.AsgardeoSub)
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := ensureUniqueIdentity(ctx, repos.Suppliers(), supplier.Email, supplier.AsgardeoSub, nil); err != nil {
			return err
		}
		if err := repos.Suppliers().Create(ctx, supplier); err != nil {
			return err
		}
		events = supplier.PullDomainEvents()
		return record(ctx, repos, supplier.ID, audit.ActionSupplierCreated, audit.Details{
			"name":  supplier.Name,
			"email": supplier.Email,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// GetByID returns a supplier
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// List returns one page of suppliers
func (s *SupplierService) List(ctx context.Context, f SupplierListFilter) (*shared.Paginated[SupplierResponse], error) {
	page := shared.Pagination{Page: f.Page, Size: f.Size}.Normalize()
	suppliers, total, err := s.suppliers.List(ctx, partner.SupplierFilter{
		Pagination: page,
		Sort:       shared.Sort{Field: f.SortBy, Direction: f.SortOrder},
		Search:     strings.TrimSpace(f.Search),
		IsActive:   f.IsActive,
	})
	if err != nil {
		return nil, err
	}

	items := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		items[i] = ToSupplierResponse(&suppliers[i])
	}
	result := shared.NewPaginated(items, total, page)
	return &result, nil
}

// Performance returns the delivery and rating figures of a supplier
func (s *SupplierService) Performance(ctx context.Context, id uuid.UUID) (*PerformanceResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPerformanceResponse(supplier)
	return &resp, nil
}

// Update applies a partial profile update guarded by expectedVersion
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest, expectedVersion *int) (*SupplierResponse, error) {
	update := req.toProfileUpdate()
	if update.IsEmpty() {
		return nil, shared.NewValidationError("no updatable fields supplied")
	}

	var (
		supplier *partner.Supplier
		events   []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		supplier, err = repos.Suppliers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := supplier.CheckVersion(expectedVersion); err != nil {
			return err
		}

		changed, err := supplier.ApplyProfile(update)
		if err != nil {
			return err
		}
		if err := ensureUniqueIdentity(ctx, repos.Suppliers(), emailIfChanged(supplier, changed), subIfChanged(supplier, changed), &supplier.ID); err != nil {
			return err
		}
		if err := repos.Suppliers().SaveWithLock(ctx, supplier); err != nil {
			return err
		}
		events = supplier.PullDomainEvents()
		if changed == nil {
			changed = []string{}
		}
		return record(ctx, repos, supplier.ID, audit.ActionSupplierProfileUpdated, audit.Details{
			"changed_fields": changed,
			"version":        supplier.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// ResolveOwn finds the supplier profile of an authenticated supplier user:
// by email first, then by the identity provider subject
func (s *SupplierService) ResolveOwn(ctx context.Context, email, subject string) (*partner.Supplier, error) {
	if email != "" {
		supplier, err := s.suppliers.FindByEmail(ctx, email)
		if err == nil {
			return supplier, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if subject != "" {
		supplier, err := s.suppliers.FindByAsgardeoSub(ctx, subject)
		if err == nil {
			return supplier, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, shared.NewNotFoundError("supplier profile for", firstNonEmpty(email, subject))
}

// GetOwn returns the caller's own supplier profile
func (s *SupplierService) GetOwn(ctx context.Context, email, subject string) (*SupplierResponse, error) {
	supplier, err := s.ResolveOwn(ctx, email, subject)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// UpdateOwn lets a supplier user edit its own contact details. Activation
// and identity linking stay with staff.
func (s *SupplierService) UpdateOwn(ctx context.Context, email, subject string, req UpdateSupplierRequest, expectedVersion *int) (*SupplierResponse, error) {
	if req.IsActive != nil || req.AsgardeoSub != nil {
		return nil, shared.NewValidationError("is_active and asgardeo_sub cannot be changed on the own profile")
	}
	supplier, err := s.ResolveOwn(ctx, email, subject)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, supplier.ID, req, expectedVersion)
}

// Delete removes a supplier without purchase orders. The audit trail is kept.
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		supplier, err := repos.Suppliers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		count, err := repos.Orders().CountBySupplier(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewConflictError("supplier has purchase orders and cannot be deleted")
		}
		if err := repos.Suppliers().Delete(ctx, id); err != nil {
			return err
		}
		return record(ctx, repos, id, audit.ActionSupplierDeleted, audit.Details{
			"name":  supplier.Name,
			"email": supplier.Email,
		})
	})
}

// AuditTrail returns every audit entry of a supplier, oldest first
func (s *SupplierService) AuditTrail(ctx context.Context, id uuid.UUID) ([]AuditEntryResponse, error) {
	if _, err := s.suppliers.FindByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.auditLog.ListBySupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAuditEntryResponses(entries), nil
}

func ensureUniqueIdentity(ctx context.Context, suppliers partner.SupplierRepository, email string, sub *string, excludeID *uuid.UUID) error {
	if email != "" {
		exists, err := suppliers.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflictError("a supplier with this email already exists")
		}
	}
	if sub != nil && *sub != "" {
		exists, err := suppliers.ExistsByAsgardeoSub(ctx, *sub, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflictError("a supplier is already linked to this identity")
		}
	}
	return nil
}

func emailIfChanged(s *partner.Supplier, changed []string) string {
	if slices.Contains(changed, "email") {
		return s.Email
	}
	return ""
}

func subIfChanged(s *partner.Supplier, changed []string) *string {
	if slices.Contains(changed, "asgardeo_sub") {
		return s.AsgardeoSub
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
