// Package audit holds the append-only trail of supplier related mutations.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
)

// Action tags written to the trail
const (
	ActionSupplierCreated        = "supplier.created"
	ActionSupplierProfileUpdated = "supplier.profile_updated"
	ActionSupplierDeleted        = "supplier.deleted"
	ActionPOCreated              = "po.created"
	ActionPOStatusUpdated        = "po.status_updated"
	ActionPOUpdated              = "po.updated"
	ActionPOResponded            = "po.responded"
	ActionPOShipped              = "po.shipped"
	ActionPOReceived             = "po.received"
	ActionPODeleted              = "po.deleted"
	ActionRatingCreated          = "rating.created"
	ActionRatingUpdated          = "rating.updated"
	ActionRatingDeleted          = "rating.deleted"
)

// Details is the free-form payload of an entry
type Details map[string]any

// Entry is an immutable audit record. It is keyed by supplier so the trail
// of a supplier covers its orders and ratings too.
type Entry struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Actor      string
	Action     string
	Details    Details
	CreatedAt  time.Time
}

// NewEntry builds an entry for the actor carried by ctx
func NewEntry(ctx context.Context, supplierID uuid.UUID, action string, details Details) (*Entry, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("audit entry requires a supplier")
	}
	if strings.TrimSpace(action) == "" {
		return nil, shared.NewValidationError("audit entry requires an action")
	}
	if details == nil {
		details = Details{}
	}
	return &Entry{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Actor:      shared.ActorFromContext(ctx),
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Repository appends and reads audit entries. There is no update or delete.
type Repository interface {
	// Append stores an entry inside the caller's transaction
	Append(ctx context.Context, entry *Entry) error

	// ListBySupplier returns a supplier's entries oldest first
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]Entry, error)
}
