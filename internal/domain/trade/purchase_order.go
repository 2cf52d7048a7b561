package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is the aggregate root for the purchase order lifecycle.
//
// Status and SupplierResponse are two independent axes: Status follows
// statusTransitions, SupplierResponse moves once from pending to a final
// decision and fires the matching status event.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PONumber              string
	SupplierID            uuid.UUID
	TotalAmount           decimal.Decimal
	OrderDate             time.Time
	ExpectedDeliveryDate  *time.Time
	ActualDeliveryDate    *time.Time
	EstimatedDeliveryDate *time.Time
	Status                Status
	SupplierResponse      SupplierResponse
	RequestedQuantity     *int
	ApprovedQuantity      *int
	RejectionReason       *string
	TrackingNumber        *string
	Notes                 *string
	SupplierNotes         *string
	RespondedAt           *time.Time
	Items                 []PurchaseOrderItem
}

// CreateInput holds the caller supplied fields of a new order
type CreateInput struct {
	InitialStatus        Status
	TotalAmount          *decimal.Decimal
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	RequestedQuantity    *int
	Notes                *string
	Items                []ItemInput
}

// NewPurchaseOrder creates an order in draft (or pending, if requested) with
// supplier_response pending. The order number is assigned separately.
func NewPurchaseOrder(supplierID uuid.UUID, in CreateInput) (*PurchaseOrder, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("supplier_id is required")
	}

	status := in.InitialStatus
	if status == "" {
		status = StatusDraft
	}
	if status != StatusDraft && status != StatusPending {
		return nil, shared.NewValidationError(fmt.Sprintf("initial status must be %s or %s", StatusDraft, StatusPending))
	}
	if in.RequestedQuantity != nil && *in.RequestedQuantity <= 0 {
		return nil, shared.NewValidationError("requested_quantity must be positive")
	}

	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		Status:            status,
		SupplierResponse:  ResponsePending,
		RequestedQuantity: in.RequestedQuantity,
		Notes:             trimmed(in.Notes),
	}

	po.OrderDate = po.CreatedAt
	if in.OrderDate != nil {
		po.OrderDate = in.OrderDate.UTC()
	}
	if in.ExpectedDeliveryDate != nil {
		expected := in.ExpectedDeliveryDate.UTC()
		if startOfDay(expected).Before(startOfDay(po.OrderDate)) {
			return nil, shared.NewValidationError("expected_delivery_date cannot be before order_date")
		}
		po.ExpectedDeliveryDate = &expected
	}

	items, err := buildItems(po.ID, in.Items)
	if err != nil {
		return nil, err
	}
	po.Items = items

	switch {
	case in.TotalAmount != nil:
		if in.TotalAmount.IsNegative() {
			return nil, shared.NewValidationError("total_amount cannot be negative")
		}
		po.TotalAmount = in.TotalAmount.Round(2)
	case len(items) > 0:
		po.TotalAmount = sumLineTotals(items)
	default:
		po.TotalAmount = decimal.Zero
	}

	return po, nil
}

// AssignNumber sets the order number and records the creation event. It may
// be called again with a fresh number when the first one collided.
func (po *PurchaseOrder) AssignNumber(number string) {
	po.PONumber = number
	po.PullDomainEvents()
	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))
}

// ChangeStatus moves the order to target through the event that reaches it.
// Receipt is only possible through Receive, and confirmation or rejection of
// an unanswered order only through Respond. Returns false when target equals
// the current status.
func (po *PurchaseOrder) ChangeStatus(target Status) (bool, error) {
	if !target.IsValid() {
		return false, shared.NewValidationError(fmt.Sprintf("unknown status %q", target))
	}
	if target == po.Status {
		return false, nil
	}
	if target == StatusReceived {
		return false, shared.NewInvalidTransitionError("orders are received through the receive operation")
	}
	event, ok := po.Status.EventTo(target)
	if !ok {
		return false, po.illegal(target)
	}
	if event.OwnedByResponse(po.SupplierResponse) {
		return false, shared.NewInvalidTransitionError(fmt.Sprintf("order %s reaches %s only through the supplier response", po.PONumber, target))
	}
	po.fire(event)
	return true, nil
}

// DetailsUpdate carries editable order details
type DetailsUpdate struct {
	Notes                *string
	ExpectedDeliveryDate *time.Time
}

// UpdateDetails applies notes and the expected delivery date
func (po *PurchaseOrder) UpdateDetails(u DetailsUpdate) error {
	if po.Status.IsTerminal() && (u.Notes != nil || u.ExpectedDeliveryDate != nil) {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s is %s and can no longer be edited", po.PONumber, po.Status))
	}
	if u.ExpectedDeliveryDate != nil {
		expected := u.ExpectedDeliveryDate.UTC()
		if startOfDay(expected).Before(startOfDay(po.OrderDate)) {
			return shared.NewValidationError("expected_delivery_date cannot be before order_date")
		}
		po.ExpectedDeliveryDate = &expected
	}
	if u.Notes != nil {
		po.Notes = trimmed(u.Notes)
	}
	po.Touch()
	return nil
}

// ReplaceItems swaps all line items and recomputes the total. Items are
// frozen once the order leaves draft.
func (po *PurchaseOrder) ReplaceItems(inputs []ItemInput) error {
	if po.Status != StatusDraft {
		return shared.NewInvalidTransitionError(fmt.Sprintf("items of order %s cannot change in status %s", po.PONumber, po.Status))
	}
	items, err := buildItems(po.ID, inputs)
	if err != nil {
		return err
	}
	po.Items = items
	po.TotalAmount = sumLineTotals(items)
	po.Touch()
	return nil
}

// ResponseInput is the supplier's answer to an order
type ResponseInput struct {
	Response              SupplierResponse
	ApprovedQuantity      *int
	RejectionReason       *string
	SupplierNotes         *string
	EstimatedDeliveryDate *time.Time
}

// Respond records the supplier's decision and fires the status event it implies
func (po *PurchaseOrder) Respond(in ResponseInput, now time.Time) error {
	if !in.Response.IsValid() || in.Response == ResponsePending {
		return shared.NewValidationError(fmt.Sprintf("response must be one of %s, %s, %s",
			ResponseApproved, ResponsePartiallyApproved, ResponseRejected))
	}
	event, ok := responseTransitions[po.SupplierResponse][in.Response]
	if !ok {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s was already answered with %s", po.PONumber, po.SupplierResponse))
	}

	switch event {
	case EventApprove:
		if in.ApprovedQuantity == nil || *in.ApprovedQuantity <= 0 {
			return shared.NewValidationError("approved_quantity must be a positive number")
		}
	case EventReject:
		if in.RejectionReason == nil || strings.TrimSpace(*in.RejectionReason) == "" {
			return shared.NewValidationError("rejection_reason is required when rejecting")
		}
	}

	to, ok := po.Status.Fire(event)
	if !ok {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s in status %s cannot be %s", po.PONumber, po.Status, in.Response))
	}

	from := po.Status
	po.SupplierResponse = in.Response
	po.Status = to
	if event == EventApprove {
		po.ApprovedQuantity = in.ApprovedQuantity
	} else {
		po.RejectionReason = trimmed(in.RejectionReason)
	}
	if in.SupplierNotes != nil {
		po.SupplierNotes = trimmed(in.SupplierNotes)
	}
	if in.EstimatedDeliveryDate != nil {
		eta := in.EstimatedDeliveryDate.UTC()
		po.EstimatedDeliveryDate = &eta
	}
	respondedAt := now.UTC()
	po.RespondedAt = &respondedAt
	po.Touch()

	po.AddDomainEvent(NewPurchaseOrderRespondedEvent(po))
	po.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(po, from, to))
	return nil
}

// ShipmentInput is the supplier's shipping progress update
type ShipmentInput struct {
	Status                Status
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
	SupplierNotes         *string
}

// UpdateShipment moves a confirmed order to preparing or shipped
func (po *PurchaseOrder) UpdateShipment(in ShipmentInput) error {
	var event Event
	switch in.Status {
	case StatusPreparing:
		event = EventPrepare
	case StatusShipped:
		event = EventShip
	default:
		return shared.NewValidationError(fmt.Sprintf("shipment status must be %s or %s", StatusPreparing, StatusShipped))
	}
	if po.Status != StatusConfirmed && po.Status != StatusPreparing {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s in status %s cannot be shipped", po.PONumber, po.Status))
	}
	to, ok := po.Status.Fire(event)
	if !ok {
		return po.illegal(in.Status)
	}

	from := po.Status
	po.Status = to
	if in.TrackingNumber != nil {
		po.TrackingNumber = trimmed(in.TrackingNumber)
	}
	if in.EstimatedDeliveryDate != nil {
		eta := in.EstimatedDeliveryDate.UTC()
		po.EstimatedDeliveryDate = &eta
	}
	if in.SupplierNotes != nil {
		po.SupplierNotes = trimmed(in.SupplierNotes)
	}
	po.Touch()
	po.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(po, from, to))
	return nil
}

// Receipt describes a completed delivery
type Receipt struct {
	ReceivedAt   time.Time
	OnTime       bool
	DeliveryDays decimal.Decimal
}

// Receive marks a shipped order as received at now
func (po *PurchaseOrder) Receive(now time.Time) (Receipt, error) {
	to, ok := po.Status.Fire(EventReceive)
	if !ok {
		return Receipt{}, shared.NewInvalidTransitionError(fmt.Sprintf("order %s must be %s to be received, it is %s", po.PONumber, StatusShipped, po.Status))
	}

	receivedAt := now.UTC()
	from := po.Status
	po.Status = to
	po.ActualDeliveryDate = &receivedAt
	po.Touch()

	receipt := Receipt{
		ReceivedAt:   receivedAt,
		OnTime:       po.ExpectedDeliveryDate == nil || !startOfDay(receivedAt).After(startOfDay(*po.ExpectedDeliveryDate)),
		DeliveryDays: decimal.NewFromInt(daysBetween(po.OrderDate, receivedAt)),
	}
	po.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(po, from, to))
	po.AddDomainEvent(NewPurchaseOrderReceivedEvent(po, receipt))
	return receipt, nil
}

// EnsureRateable fails unless the order has been received
func (po *PurchaseOrder) EnsureRateable() error {
	if po.Status != StatusReceived {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s can only be rated once received, it is %s", po.PONumber, po.Status))
	}
	return nil
}

// EnsureDeletable restricts deletion of orders that feed supplier performance
func (po *PurchaseOrder) EnsureDeletable(rated bool) error {
	if po.Status == StatusReceived {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s was received and cannot be deleted", po.PONumber))
	}
	if rated {
		return shared.NewInvalidTransitionError(fmt.Sprintf("order %s was rated and cannot be deleted", po.PONumber))
	}
	return nil
}

func (po *PurchaseOrder) fire(event Event) {
	from := po.Status
	to := statusTransitions[from][event]
	po.Status = to
	po.Touch()
	po.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(po, from, to))
}

func (po *PurchaseOrder) illegal(target Status) error {
	return shared.NewInvalidTransitionError(fmt.Sprintf("cannot change order %s from %s to %s", po.PONumber, po.Status, target))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int64 {
	days := int64(startOfDay(to).Sub(startOfDay(from)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
