package event

import (
	"context"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// BusinessRecorder is the part of telemetry.BusinessMetrics fed by events
type BusinessRecorder interface {
	RecordOrderCreated(ctx context.Context, status string, amount decimal.Decimal)
	RecordStatusTransition(ctx context.Context, from, to string)
	RecordSupplierResponse(ctx context.Context, response string)
	RecordDelivery(ctx context.Context, onTime bool, days decimal.Decimal)
	RecordRatingChange(ctx context.Context, change string)
}

// MetricsHandler turns procurement events into business metrics
type MetricsHandler struct {
	recorder BusinessRecorder
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(recorder BusinessRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// EventTypes implements shared.EventHandler
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		trade.EventTypePurchaseOrderCreated,
		trade.EventTypePurchaseOrderStatusChanged,
		trade.EventTypePurchaseOrderResponded,
		trade.EventTypePurchaseOrderReceived,
		partner.EventTypeSupplierRated,
	}
}

// Handle implements shared.EventHandler. Unknown events are ignored.
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.PurchaseOrderCreatedEvent:
		h.recorder.RecordOrderCreated(ctx, e.Status.String(), e.TotalAmount)
	case *trade.PurchaseOrderStatusChangedEvent:
		h.recorder.RecordStatusTransition(ctx, e.From.String(), e.To.String())
	case *trade.PurchaseOrderRespondedEvent:
		h.recorder.RecordSupplierResponse(ctx, string(e.Response))
	case *trade.PurchaseOrderReceivedEvent:
		h.recorder.RecordDelivery(ctx, e.OnTime, e.DeliveryDays)
	case *partner.SupplierRatedEvent:
		h.recorder.RecordRatingChange(ctx, string(e.Change))
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
