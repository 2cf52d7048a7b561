package procurement

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/supplier-service/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierFunc func(ctx context.Context, req AdjustmentRequest) error

func (f notifierFunc) Adjust(ctx context.Context, req AdjustmentRequest) error { return f(ctx, req) }

func receivedOrder(t *testing.T, productIDs ...int64) *trade.PurchaseOrder {
	t.Helper()
	items := make([]trade.ItemInput, len(productIDs))
	for i, id := range productIDs {
		items[i] = trade.ItemInput{ProductID: id, SKU: "SKU", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}
	}
	po, err := trade.NewPurchaseOrder(uuid.New(), trade.CreateInput{Items: items})
	require.NoError(t, err)
	po.AssignNumber("PO-1-TESTTESTT")
	return po
}

func TestFanOut_NothingToSend(t *testing.T) {
	report := newInventoryFanOut(nil).notify(t.Context(), receivedOrder(t, 1))
	assert.True(t, report.Successful)

	called := false
	f := newInventoryFanOut(notifierFunc(func(context.Context, AdjustmentRequest) error {
		called = true
		return nil
	}))
	report = f.notify(t.Context(), receivedOrder(t))
	assert.True(t, report.Successful)
	assert.False(t, called)
}

func TestFanOut_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	f := newInventoryFanOut(notifierFunc(func(context.Context, AdjustmentRequest) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}), WithInventoryConcurrency(2))

	report := f.notify(t.Context(), receivedOrder(t, 1, 2, 3, 4, 5, 6))

	assert.True(t, report.Successful)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFanOut_ErrorsSortedByProduct(t *testing.T) {
	f := newInventoryFanOut(notifierFunc(func(_ context.Context, req AdjustmentRequest) error {
		if req.ProductID%2 == 1 {
			return errors.New("rejected")
		}
		return nil
	}), WithInventoryConcurrency(8))

	report := f.notify(t.Context(), receivedOrder(t, 9, 4, 7, 1, 2))

	assert.False(t, report.Successful)
	require.Len(t, report.Errors, 3)
	assert.EqualValues(t, []int64{1, 7, 9}, []int64{report.Errors[0].ProductID, report.Errors[1].ProductID, report.Errors[2].ProductID})
	assert.Equal(t, "rejected", report.Errors[0].Error)
}

func TestFanOut_DetachedFromRequestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	f := newInventoryFanOut(notifierFunc(func(ctx context.Context, _ AdjustmentRequest) error {
		return ctx.Err()
	}), WithInventoryCallTimeout(time.Second))

	report := f.notify(ctx, receivedOrder(t, 1, 2))
	assert.True(t, report.Successful)
}

func TestFanOut_PerCallTimeout(t *testing.T) {
	f := newInventoryFanOut(notifierFunc(func(ctx context.Context, _ AdjustmentRequest) error {
		<-ctx.Done()
		return ctx.Err()
	}), WithInventoryCallTimeout(10*time.Millisecond))

	report := f.notify(t.Context(), receivedOrder(t, 1))

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "deadline exceeded")
}

func TestAdjustmentKey_StablePerLine(t *testing.T) {
	po := receivedOrder(t, 3)
	a := NewReceiptAdjustment(po, po.Items[0])
	b := NewReceiptAdjustment(po, po.Items[0])

	assert.Equal(t, a.IdempotencyKey, b.IdempotencyKey)
	assert.Equal(t, AdjustmentKey(po.ID, po.Items[0].ID), a.IdempotencyKey)
	assert.Equal(t, MovementTypeIn, a.MovementType)
	assert.Equal(t, 1, a.Quantity)
}
