package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a committed change of a supplier or one of its orders.
// Every event in this service belongs to exactly one supplier, which is
// what consumers partition by.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	SupplierID() uuid.UUID
}

// EventHeader is embedded by concrete events
type EventHeader struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	At        time.Time `json:"occurred_at"`
	Aggregate uuid.UUID `json:"aggregate_id"`
	Kind      string    `json:"aggregate_type"`
	Supplier  uuid.UUID `json:"supplier_id"`
}

func (h *EventHeader) EventID() uuid.UUID     { return h.ID }
func (h *EventHeader) EventType() string      { return h.Type }
func (h *EventHeader) OccurredAt() time.Time  { return h.At }
func (h *EventHeader) AggregateID() uuid.UUID { return h.Aggregate }
func (h *EventHeader) AggregateType() string  { return h.Kind }
func (h *EventHeader) SupplierID() uuid.UUID  { return h.Supplier }

// NewEventHeader stamps a new event of aggregate aggID owned by supplierID
func NewEventHeader(eventType, aggregateType string, aggID, supplierID uuid.UUID) EventHeader {
	return EventHeader{
		ID:        uuid.New(),
		Type:      eventType,
		At:        time.Now().UTC(),
		Aggregate: aggID,
		Kind:      aggregateType,
		Supplier:  supplierID,
	}
}
