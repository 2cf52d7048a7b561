package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned by NewBusinessMetrics without a meter
var ErrMeterNil = errors.New("business metrics: meter is nil")

const defaultCollectInterval = 5 * time.Minute

// BusinessMetrics records procurement activity. Counters and histograms are
// fed by domain events; the per-status gauge is sampled from the database.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersCreated     metric.Int64Counter
	orderAmount       metric.Float64Histogram
	statusTransitions metric.Int64Counter
	supplierResponses metric.Int64Counter
	deliveries        metric.Int64Counter
	deliveryDays      metric.Float64Histogram
	ratingChanges     metric.Int64Counter
	inventoryCalls    metric.Int64Counter
	inventoryLatency  metric.Float64Histogram
	ordersByStatus    metric.Int64Gauge

	stop        chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// OrderStatusCounter reports how many purchase orders sit in each status
type OrderStatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// OrderStatusCounterFunc adapts a function to OrderStatusCounter
type OrderStatusCounterFunc func(ctx context.Context) (map[string]int64, error)

func (f OrderStatusCounterFunc) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return f(ctx)
}

type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{logger: cfg.Logger, stop: make(chan struct{})}
	if bm.logger == nil {
		bm.logger = zap.NewNop()
	}

	m := cfg.Meter
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc, unit string, bounds []float64) metric.Float64Histogram {
		h, err := m.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit(unit),
			metric.WithExplicitBucketBoundaries(bounds...),
		)
		errs = append(errs, err)
		return h
	}

	bm.ordersCreated = counter("procurement_purchase_orders_created_total", "Purchase orders created", "{orders}")
	bm.statusTransitions = counter("procurement_status_transitions_total", "Purchase order status transitions", "{transitions}")
	bm.supplierResponses = counter("procurement_supplier_responses_total", "Supplier responses recorded", "{responses}")
	bm.deliveries = counter("procurement_deliveries_total", "Purchase orders received", "{deliveries}")
	bm.ratingChanges = counter("procurement_rating_changes_total", "Supplier rating mutations", "{ratings}")
	bm.inventoryCalls = counter("procurement_inventory_adjustments_total", "Inventory adjustment calls by outcome", "{calls}")

	bm.orderAmount = histogram("procurement_purchase_order_amount", "Total amount of created purchase orders", "{currency}", OrderAmountBuckets)
	bm.deliveryDays = histogram("procurement_delivery_days", "Days between order date and receipt", "d", DeliveryDaysBuckets)
	bm.inventoryLatency = histogram("procurement_inventory_request_duration", "Latency of inventory adjustment calls", "s", LatencyBuckets)

	gauge, err := m.Int64Gauge("procurement_purchase_orders",
		metric.WithDescription("Current number of purchase orders per status"),
		metric.WithUnit("{orders}"),
	)
	bm.ordersByStatus = gauge
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("create business instruments: %w", err)
	}
	return bm, nil
}

func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, status string, amount decimal.Decimal) {
	attrs := metric.WithAttributes(AttrStatus.String(status))
	bm.ordersCreated.Add(ctx, 1, attrs)
	bm.orderAmount.Record(ctx, amount.InexactFloat64(), attrs)
}

func (bm *BusinessMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	bm.statusTransitions.Add(ctx, 1, metric.WithAttributes(AttrFromStatus.String(from), AttrToStatus.String(to)))
}

// RecordSupplierResponse counts an approval, partial approval or rejection
func (bm *BusinessMetrics) RecordSupplierResponse(ctx context.Context, response string) {
	bm.supplierResponses.Add(ctx, 1, metric.WithAttributes(AttrResponse.String(response)))
}

func (bm *BusinessMetrics) RecordDelivery(ctx context.Context, onTime bool, days decimal.Decimal) {
	attrs := metric.WithAttributes(AttrOnTime.Bool(onTime))
	bm.deliveries.Add(ctx, 1, attrs)
	bm.deliveryDays.Record(ctx, days.InexactFloat64(), attrs)
}

func (bm *BusinessMetrics) RecordRatingChange(ctx context.Context, change string) {
	bm.ratingChanges.Add(ctx, 1, metric.WithAttributes(AttrRatingChange.String(change)))
}

// RecordInventoryAdjustment counts one call to the inventory service.
// Outcome is "success", "rejected" or "unavailable"; statusCode is zero when
// no response arrived.
func (bm *BusinessMetrics) RecordInventoryAdjustment(ctx context.Context, outcome string, d time.Duration, statusCode int) {
	attrs := []attribute.KeyValue{AttrOutcome.String(outcome)}
	if statusCode > 0 {
		attrs = append(attrs, AttrHTTPStatusCode.Int(statusCode))
	}
	bm.inventoryCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	bm.inventoryLatency.Record(ctx, d.Seconds(), metric.WithAttributes(AttrOutcome.String(outcome)))
}

// StartPeriodicCollection samples the per-status order counts now and then
// every interval until Stop or ctx is done. Only the first call starts a
// collector.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, counter OrderStatusCounter, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCollectInterval
	}
	bm.collectOnce.Do(func() {
		go bm.collectLoop(ctx, counter, interval)
	})
}

func (bm *BusinessMetrics) collectLoop(ctx context.Context, counter OrderStatusCounter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		bm.sampleOrderStatus(ctx, counter)
		select {
		case <-bm.stop:
			bm.logger.Info("Order status collection stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (bm *BusinessMetrics) sampleOrderStatus(ctx context.Context, counter OrderStatusCounter) {
	counts, err := counter.CountByStatus(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count purchase orders by status", zap.Error(err))
		return
	}
	for status, n := range counts {
		bm.ordersByStatus.Record(ctx, n, metric.WithAttributes(AttrStatus.String(status)))
	}
}

// Stop ends periodic collection. It is safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() { close(bm.stop) })
}
