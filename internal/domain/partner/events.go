package partner

import (
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate names used in events
const (
	AggregateTypeSupplier = "Supplier"
	AggregateTypeRating   = "SupplierRating"
)

const (
	EventTypeSupplierCreated        = "SupplierCreated"
	EventTypeSupplierProfileUpdated = "SupplierProfileUpdated"
	EventTypeSupplierRated          = "SupplierRated"
)

// SupplierCreatedEvent is published when a new supplier is created
type SupplierCreatedEvent struct {
	shared.EventHeader
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(s *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSupplierCreated, AggregateTypeSupplier, s.ID, s.ID),
		Name:            s.Name,
		Email:           s.Email,
	}
}

// SupplierProfileUpdatedEvent is published when profile fields change
type SupplierProfileUpdatedEvent struct {
	shared.EventHeader
	ChangedFields []string `json:"changed_fields"`
}

// NewSupplierProfileUpdatedEvent creates a new SupplierProfileUpdatedEvent
func NewSupplierProfileUpdatedEvent(s *Supplier, changed []string) *SupplierProfileUpdatedEvent {
	return &SupplierProfileUpdatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSupplierProfileUpdated, AggregateTypeSupplier, s.ID, s.ID),
		ChangedFields:   changed,
	}
}

// RatingChange describes what happened to a rating
type RatingChange string

const (
	RatingCreated RatingChange = "created"
	RatingUpdated RatingChange = "updated"
	RatingDeleted RatingChange = "deleted"
)

// SupplierRatedEvent is published after a rating change was committed
type SupplierRatedEvent struct {
	shared.EventHeader
	RatingID uuid.UUID    `json:"rating_id"`
	Change   RatingChange `json:"change"`
	Overall  int          `json:"overall"`
}

// NewSupplierRatedEvent creates a new SupplierRatedEvent
func NewSupplierRatedEvent(r *SupplierRating, change RatingChange) *SupplierRatedEvent {
	return &SupplierRatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSupplierRated, AggregateTypeRating, r.ID, r.SupplierID),
		RatingID:        r.ID,
		Change:          change,
		Overall:         r.Scores.Overall,
	}
}
