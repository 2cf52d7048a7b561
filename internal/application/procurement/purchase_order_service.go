package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MaxOrderNumberAttempts bounds the retries after an order number collision
const MaxOrderNumberAttempts = 5

// PurchaseOrderService orchestrates the purchase order lifecycle. Every
// mutation runs in one transaction together with its audit entry and, for
// receipts, the supplier delivery figures.
type PurchaseOrderService struct {
	base
	orders      trade.PurchaseOrderRepository
	suppliers   partner.SupplierRepository
	inventory   *inventoryFanOut
	orderNumber func(time.Time) (string, error)
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	txScope TransactionScope,
	orders trade.PurchaseOrderRepository,
	suppliers partner.SupplierRepository,
	notifier InventoryNotifier,
	opts ...InventoryOption,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		base:        newBase(txScope),
		orders:      orders,
		suppliers:   suppliers,
		inventory:   newInventoryFanOut(notifier, opts...),
		orderNumber: trade.NewOrderNumber,
	}
}

// SetOrderNumberGenerator replaces the order number source
func (s *PurchaseOrderService) SetOrderNumberGenerator(gen func(time.Time) (string, error)) {
	s.orderNumber = gen
}

// Create creates an order for an active supplier. A colliding order number
// is re-derived up to MaxOrderNumberAttempts times.
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrSupplierID, req.SupplierID))
	defer span.End()

	po, err := trade.NewPurchaseOrder(req.SupplierID, req.toCreateInput())
	if err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		supplier, err := repos.Suppliers().FindByID(ctx, req.SupplierID)
		if err != nil {
			return err
		}
		if err := supplier.EnsureCanReceiveOrders(); err != nil {
			return err
		}
		if err := s.insertWithFreshNumber(ctx, repos.Orders(), po); err != nil {
			return err
		}
		events = po.PullDomainEvents()
		return record(ctx, repos, po.SupplierID, audit.ActionPOCreated, audit.Details{
			"purchase_order_id": po.ID,
			"po_number":         po.PONumber,
			"status":            po.Status,
			"total_amount":      po.TotalAmount.StringFixed(2),
			"items":             len(po.Items),
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderNumber, po.PONumber)

	s.publish(ctx, events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

func (s *PurchaseOrderService) insertWithFreshNumber(ctx context.Context, orders trade.PurchaseOrderRepository, po *trade.PurchaseOrder) error {
	var err error
	for attempt := 1; attempt <= MaxOrderNumberAttempts; attempt++ {
		number, genErr := s.orderNumber(s.now())
		if genErr != nil {
			return shared.NewInternalError("failed to generate order number", genErr)
		}
		po.AssignNumber(number)

		err = orders.Create(ctx, po)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return err
		}
		logger.L(ctx).Warn("Purchase order number collision, retrying",
			zap.String("po_number", number),
			zap.Int("attempt", attempt),
		)
	}
	return err
}

// GetByID returns an order with its items
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// List returns one page of orders
func (s *PurchaseOrderService) List(ctx context.Context, f OrderListFilter) (*shared.Paginated[PurchaseOrderResponse], error) {
	page := shared.Pagination{Page: f.Page, Size: f.Size}.Normalize()
	filter := trade.OrderFilter{
		Pagination: page,
		Sort:       shared.Sort{Field: f.SortBy, Direction: f.SortOrder},
		SupplierID: f.SupplierID,
	}
	if f.Status != "" {
		status := trade.Status(f.Status)
		filter.Status = &status
	}
	if f.SupplierResponse != "" {
		response := trade.SupplierResponse(f.SupplierResponse)
		filter.SupplierResponse = &response
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(toPurchaseOrderResponses(orders), total, page)
	return &result, nil
}

// Pending lists the orders of a supplier still awaiting its answer
func (s *PurchaseOrderService) Pending(ctx context.Context, supplierID uuid.UUID) ([]PurchaseOrderResponse, error) {
	if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListPendingForSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponses(orders), nil
}

// Stats counts orders per status, for one supplier or overall
func (s *PurchaseOrderService) Stats(ctx context.Context, supplierID *uuid.UUID) (*OrderStatsResponse, error) {
	stats, err := s.orders.Stats(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderStatsResponse(stats)
	return &resp, nil
}

// Update changes status, notes, expected delivery date and (in draft) the
// items of an order
func (s *PurchaseOrderService) Update(ctx context.Context, id uuid.UUID, req UpdatePurchaseOrderRequest, expectedVersion *int) (*PurchaseOrderResponse, error) {
	if req.isEmpty() {
		return nil, shared.NewValidationError("no updatable fields supplied")
	}

	var events []shared.DomainEvent
	po, err := s.mutate(ctx, "update", id, expectedVersion, nil, func(ctx context.Context, repos TransactionalRepositories, po *trade.PurchaseOrder) (string, audit.Details, error) {
		from := po.Status
		itemsReplaced := false
		if req.Items != nil {
			if err := po.ReplaceItems(toItemInputs(*req.Items)); err != nil {
				return "", nil, err
			}
			itemsReplaced = true
		}
		if err := po.UpdateDetails(trade.DetailsUpdate{Notes: req.Notes, ExpectedDeliveryDate: req.ExpectedDeliveryDate.ptr()}); err != nil {
			return "", nil, err
		}
		changedStatus := false
		if req.Status != nil {
			var err error
			if changedStatus, err = po.ChangeStatus(trade.Status(*req.Status)); err != nil {
				return "", nil, err
			}
		}
		if err := repos.Orders().SaveWithLock(ctx, po); err != nil {
			return "", nil, err
		}
		if itemsReplaced {
			if err := repos.Orders().ReplaceItems(ctx, po); err != nil {
				return "", nil, err
			}
		}
		events = po.PullDomainEvents()

		details := audit.Details{"po_number": po.PONumber, "purchase_order_id": po.ID}
		if itemsReplaced {
			details["items"] = len(po.Items)
			details["total_amount"] = po.TotalAmount.StringFixed(2)
		}
		if changedStatus {
			details["from"] = from
			details["to"] = po.Status
			return audit.ActionPOStatusUpdated, details, nil
		}
		return audit.ActionPOUpdated, details, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// Respond records the supplier's decision on an order
func (s *PurchaseOrderService) Respond(ctx context.Context, id uuid.UUID, req RespondRequest, expectedVersion *int, ownerID *uuid.UUID) (*PurchaseOrderResponse, error) {
	var events []shared.DomainEvent
	po, err := s.mutate(ctx, "respond", id, expectedVersion, ownerID, func(ctx context.Context, repos TransactionalRepositories, po *trade.PurchaseOrder) (string, audit.Details, error) {
		telemetry.SetAttribute(trace.SpanFromContext(ctx), telemetry.SpanAttrSupplierResponse, req.Response)
		if err := po.Respond(req.toResponseInput(), s.now()); err != nil {
			return "", nil, err
		}
		if err := repos.Orders().SaveWithLock(ctx, po); err != nil {
			return "", nil, err
		}
		events = po.PullDomainEvents()
		details := audit.Details{
			"po_number":         po.PONumber,
			"purchase_order_id": po.ID,
			"response":          po.SupplierResponse,
			"status":            po.Status,
		}
		if po.ApprovedQuantity != nil {
			details["approved_quantity"] = *po.ApprovedQuantity
		}
		if po.RejectionReason != nil {
			details["rejection_reason"] = *po.RejectionReason
		}
		return audit.ActionPOResponded, details, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// Ship records shipping progress of a confirmed order
func (s *PurchaseOrderService) Ship(ctx context.Context, id uuid.UUID, req ShipRequest, expectedVersion *int, ownerID *uuid.UUID) (*PurchaseOrderResponse, error) {
	var events []shared.DomainEvent
	po, err := s.mutate(ctx, "ship", id, expectedVersion, ownerID, func(ctx context.Context, repos TransactionalRepositories, po *trade.PurchaseOrder) (string, audit.Details, error) {
		from := po.Status
		if err := po.UpdateShipment(req.toShipmentInput()); err != nil {
			return "", nil, err
		}
		if err := repos.Orders().SaveWithLock(ctx, po); err != nil {
			return "", nil, err
		}
		events = po.PullDomainEvents()
		details := audit.Details{
			"po_number":         po.PONumber,
			"purchase_order_id": po.ID,
			"from":              from,
			"to":                po.Status,
		}
		if po.TrackingNumber != nil {
			details["tracking_number"] = *po.TrackingNumber
		}
		return audit.ActionPOShipped, details, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// Receive confirms receipt of a shipped order, folds the delivery into the
// supplier figures in the same transaction and then notifies the inventory
// service once per line. Inventory failures are reported, never rolled back.
func (s *PurchaseOrderService) Receive(ctx context.Context, id uuid.UUID, expectedVersion *int) (*ReceiveResponse, error) {
	var events []shared.DomainEvent
	po, err := s.mutate(ctx, "receive", id, expectedVersion, nil, func(ctx context.Context, repos TransactionalRepositories, po *trade.PurchaseOrder) (string, audit.Details, error) {
		receipt, err := po.Receive(s.now())
		if err != nil {
			return "", nil, err
		}
		if err := repos.Orders().SaveWithLock(ctx, po); err != nil {
			return "", nil, err
		}
		if err := repos.Aggregates().RecordDelivery(ctx, po.SupplierID, partner.DeliveryRecord{
			DeliveredAt:  receipt.ReceivedAt,
			OnTime:       receipt.OnTime,
			DeliveryDays: receipt.DeliveryDays,
		}); err != nil {
			return "", nil, err
		}
		events = po.PullDomainEvents()
		return audit.ActionPOReceived, audit.Details{
			"po_number":         po.PONumber,
			"purchase_order_id": po.ID,
			"on_time":           receipt.OnTime,
			"delivery_days":     receipt.DeliveryDays.String(),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &ReceiveResponse{
		Order:            ToPurchaseOrderResponse(po),
		InventoryUpdates: s.inventory.notify(ctx, po),
	}, nil
}

// SyncInventory re-sends the stock adjustments of a received order. Lines
// already applied are skipped by the notifier's idempotency ledger.
func (s *PurchaseOrderService) SyncInventory(ctx context.Context, id uuid.UUID) (*ReceiveResponse, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != trade.StatusReceived {
		return nil, shared.NewInvalidTransitionError("inventory can only be synchronised for received orders")
	}
	return &ReceiveResponse{
		Order:            ToPurchaseOrderResponse(po),
		InventoryUpdates: s.inventory.notify(ctx, po),
	}, nil
}

// Delete removes an order that was neither received nor rated
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		rated, err := repos.Ratings().ExistsForOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := po.EnsureDeletable(rated); err != nil {
			return err
		}
		if err := repos.Orders().Delete(ctx, id); err != nil {
			return err
		}
		return record(ctx, repos, po.SupplierID, audit.ActionPODeleted, audit.Details{
			"po_number":         po.PONumber,
			"purchase_order_id": po.ID,
			"status":            po.Status,
		})
	})
}

// mutation changes a locked order and returns the audit action and details
type mutation func(ctx context.Context, repos TransactionalRepositories, po *trade.PurchaseOrder) (string, audit.Details, error)

// mutate runs fn on the locked order after the owner and version checks and
// appends the audit entry fn describes, all in one transaction. A non-nil
// ownerID hides orders of other suppliers.
func (s *PurchaseOrderService) mutate(ctx context.Context, op string, id uuid.UUID, expectedVersion *int, ownerID *uuid.UUID, fn mutation) (*trade.PurchaseOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", op,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id))
	defer span.End()

	var po *trade.PurchaseOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		po, err = repos.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ownerID != nil && po.SupplierID != *ownerID {
			return shared.NewNotFoundError("purchase order", id)
		}
		if err := po.CheckVersion(expectedVersion); err != nil {
			return err
		}
		action, details, err := fn(ctx, repos, po)
		if err != nil {
			return err
		}
		details["version"] = po.Version
		return record(ctx, repos, po.SupplierID, action, details)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderNumber, po.PONumber,
		telemetry.SpanAttrOrderStatus, string(po.Status),
		telemetry.SpanAttrSupplierID, po.SupplierID,
	)
	return po, nil
}
