package procurement

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/erp/supplier-service/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultInventoryConcurrency = 4
	defaultInventoryCallTimeout = 10 * time.Second
)

// InventoryOption configures the receipt fan-out
type InventoryOption func(*inventoryFanOut)

// WithInventoryConcurrency bounds the parallel adjustments per order
func WithInventoryConcurrency(n int) InventoryOption {
	return func(f *inventoryFanOut) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithInventoryCallTimeout bounds each adjustment call
func WithInventoryCallTimeout(d time.Duration) InventoryOption {
	return func(f *inventoryFanOut) {
		if d > 0 {
			f.callTimeout = d
		}
	}
}

type inventoryFanOut struct {
	notifier    InventoryNotifier
	concurrency int
	callTimeout time.Duration
}

func newInventoryFanOut(notifier InventoryNotifier, opts ...InventoryOption) *inventoryFanOut {
	f := &inventoryFanOut{
		notifier:    notifier,
		concurrency: defaultInventoryConcurrency,
		callTimeout: defaultInventoryCallTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// notify sends one adjustment per line and collects the failures. It runs
// after commit, so it is detached from the request's cancellation.
func (f *inventoryFanOut) notify(ctx context.Context, po *trade.PurchaseOrder) InventoryReport {
	report := InventoryReport{Successful: true}
	if f.notifier == nil || len(po.Items) == 0 {
		return report
	}

	ctx, span := telemetry.StartServiceSpan(context.WithoutCancel(ctx), "inventory", "notify",
		telemetry.WithAttribute(telemetry.SpanAttrOrderNumber, po.PONumber),
		telemetry.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var (
		mu     sync.Mutex
		failed []InventoryError
		g      errgroup.Group
	)
	g.SetLimit(f.concurrency)
	for _, item := range po.Items {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
			defer cancel()

			adj := NewReceiptAdjustment(po, item)
			if err := f.notifier.Adjust(callCtx, adj); err != nil {
				telemetry.AddEvent(span, "inventory_adjustment_failed",
					telemetry.SpanAttrProductID, item.ProductID,
					telemetry.SpanAttrQuantity, item.Quantity,
					telemetry.SpanAttrIdempotencyKey, adj.IdempotencyKey,
				)
				logger.L(ctx).Error("Inventory adjustment failed",
					zap.String("po_number", po.PONumber),
					zap.Int64("product_id", item.ProductID),
					zap.String("sku", item.SKU),
					zap.Error(err),
				)
				mu.Lock()
				failed = append(failed, InventoryError{ProductID: item.ProductID, SKU: item.SKU, Error: err.Error()})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		slices.SortFunc(failed, func(a, b InventoryError) int {
			return cmp.Or(cmp.Compare(a.ProductID, b.ProductID), cmp.Compare(a.SKU, b.SKU))
		})
		report.Successful = false
		report.Errors = failed
		telemetry.SetAttribute(span, "failed_adjustments", len(failed))
	}
	return report
}
