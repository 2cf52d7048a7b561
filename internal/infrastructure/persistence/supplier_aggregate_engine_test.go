package persistence

import (
	"testing"
	"time"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAggregateEngine_RecomputeRatings(t *testing.T) {
	db := newTestDB(t)
	engine := NewGormAggregateEngine(db)
	suppliers := NewGormSupplierRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")

	seedRating(t, db, s.ID, seedReceivedOrder(t, db, s.ID).ID, partner.Scores{Overall: 5})
	r := seedRating(t, db, s.ID, seedReceivedOrder(t, db, s.ID).ID, partner.Scores{Overall: 2})

	require.NoError(t, engine.RecomputeRatings(ctx, s.ID))
	stored, err := suppliers.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Performance.TotalRatings)
	assert.True(t, decimal.RequireFromString("3.5").Equal(stored.Performance.AverageRating), stored.Performance.AverageRating.String())
	assert.Equal(t, 1, stored.Version, "derived fields do not advance the version")

	require.NoError(t, NewGormRatingRepository(db).Delete(ctx, r.ID))
	require.NoError(t, engine.RecomputeRatings(ctx, s.ID))
	stored, err = suppliers.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Performance.TotalRatings)
	assert.True(t, decimal.NewFromInt(5).Equal(stored.Performance.AverageRating))

	assert.Equal(t, shared.KindNotFound, shared.KindOf(engine.RecomputeRatings(ctx, uuid.New())))
}

func TestGormAggregateEngine_RecomputeRatingsWithoutRatings(t *testing.T) {
	db := newTestDB(t)
	s := seedSupplier(t, db, "Acme", "acme@example.com")

	require.NoError(t, NewGormAggregateEngine(db).RecomputeRatings(t.Context(), s.ID))
	stored, err := NewGormSupplierRepository(db).FindByID(t.Context(), s.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Performance.TotalRatings)
	assert.True(t, stored.Performance.AverageRating.IsZero())
}

func TestGormAggregateEngine_RecordDelivery(t *testing.T) {
	db := newTestDB(t)
	engine := NewGormAggregateEngine(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 5)

	require.NoError(t, engine.RecordDelivery(ctx, s.ID, partner.DeliveryRecord{
		DeliveredAt: first, OnTime: true, DeliveryDays: decimal.NewFromInt(4),
	}))
	require.NoError(t, engine.RecordDelivery(ctx, s.ID, partner.DeliveryRecord{
		DeliveredAt: second, OnTime: false, DeliveryDays: decimal.NewFromInt(9),
	}))

	stored, err := NewGormSupplierRepository(db).FindByID(ctx, s.ID)
	require.NoError(t, err)
	perf := stored.Performance
	assert.Equal(t, 2, perf.TotalOrders)
	assert.Equal(t, 1, perf.OnTimeDeliveries)
	assert.Equal(t, 1, perf.LateDeliveries)
	assert.True(t, decimal.RequireFromString("6.5").Equal(perf.AverageDeliveryDays), perf.AverageDeliveryDays.String())
	require.NotNil(t, perf.LastDeliveryDate)
	assert.True(t, second.Equal(*perf.LastDeliveryDate))
	assert.True(t, decimal.NewFromInt(50).Equal(perf.OnTimePercentage()))

	err = engine.RecordDelivery(ctx, uuid.New(), partner.DeliveryRecord{DeliveredAt: first})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
