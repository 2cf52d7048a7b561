//go:build integration

package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/migration"
	"github.com/erp/supplier-service/internal/infrastructure/persistence"
	"github.com/erp/supplier-service/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
)

// startPostgres runs a throwaway PostgreSQL container, applies the embedded
// migrations and returns an open database
func startPostgres(t *testing.T) *persistence.Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("supplier_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := persistence.Open(gormpostgres.Open(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	status, err := m.Status()
	require.NoError(t, err)
	require.False(t, status.Dirty)

	return db
}

type services struct {
	suppliers *procurement.SupplierService
	orders    *procurement.PurchaseOrderService
	ratings   *procurement.RatingService
}

func newServices(db *persistence.Database) services {
	scope := persistence.NewGormTransactionScope(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	return services{
		suppliers: procurement.NewSupplierService(scope, supplierRepo, persistence.NewGormAuditRepository(db.DB)),
		orders:    procurement.NewPurchaseOrderService(scope, persistence.NewGormPurchaseOrderRepository(db.DB), supplierRepo, nil),
		ratings:   procurement.NewRatingService(scope, persistence.NewGormRatingRepository(db.DB), supplierRepo),
	}
}

func codeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func shippedOrder(t *testing.T, svc services, supplierID uuid.UUID) *procurement.PurchaseOrderResponse {
	t.Helper()
	ctx := t.Context()
	po, err := svc.orders.Create(ctx, procurement.CreatePurchaseOrderRequest{SupplierID: supplierID, Status: "pending"})
	require.NoError(t, err)
	qty := 3
	_, err = svc.orders.Respond(ctx, po.ID, procurement.RespondRequest{Response: "approved", ApprovedQuantity: &qty}, nil, nil)
	require.NoError(t, err)
	shipped, err := svc.orders.Ship(ctx, po.ID, procurement.ShipRequest{Status: "shipped"}, nil, nil)
	require.NoError(t, err)
	return shipped
}

func TestPostgres_ConcurrentReceiptIsAppliedOnce(t *testing.T) {
	db := startPostgres(t)
	svc := newServices(db)
	ctx := t.Context()

	supplier, err := svc.suppliers.Create(ctx, procurement.CreateSupplierRequest{Name: "Acme", Email: "acme@example.com"})
	require.NoError(t, err)
	po := shippedOrder(t, svc, supplier.ID)

	const workers = 6
	version := po.Version
	var wg sync.WaitGroup
	codes := make([]string, workers)
	for i := range workers {
		wg.Go(func() {
			_, err := svc.orders.Receive(ctx, po.ID, &version)
			codes[i] = codeOf(err)
		})
	}
	wg.Wait()

	var ok, conflicts int
	for _, code := range codes {
		switch code {
		case "":
			ok++
		case shared.CodeVersionConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	perf, err := svc.suppliers.Performance(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.TotalOrders, "the delivery is folded into the aggregates once")
}

func TestPostgres_ConcurrentRatingsKeepAggregatesConsistent(t *testing.T) {
	db := startPostgres(t)
	svc := newServices(db)
	ctx := t.Context()

	supplier, err := svc.suppliers.Create(ctx, procurement.CreateSupplierRequest{Name: "Acme", Email: "rated@example.com"})
	require.NoError(t, err)

	const orders = 5
	var ids []uuid.UUID
	for range orders {
		po := shippedOrder(t, svc, supplier.ID)
		_, err := svc.orders.Receive(ctx, po.ID, nil)
		require.NoError(t, err)
		ids = append(ids, po.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2*orders)
	for i := range 2 * orders {
		wg.Go(func() {
			_, errs[i] = svc.ratings.Create(ctx, supplier.ID, procurement.CreateRatingRequest{
				PurchaseOrderID: ids[i%orders],
				Rating:          1 + i%orders,
			})
		})
	}
	wg.Wait()

	var created, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case codeOf(err) == procurement.CodeAlreadyRated && shared.KindOf(err) == shared.KindInvalidTransition:
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, orders, created)
	assert.Equal(t, orders, rejected)

	stats, err := svc.ratings.Stats(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(orders), stats.TotalRatings)
	assert.Equal(t, orders, stats.Supplier.TotalRatings)
	assert.Equal(t, "3", stats.Supplier.AverageRating.String())
}

func TestPostgres_RatingDuringReceiptDoesNotDeadlock(t *testing.T) {
	db := startPostgres(t)
	svc := newServices(db)
	ctx := t.Context()

	supplier, err := svc.suppliers.Create(ctx, procurement.CreateSupplierRequest{Name: "Acme", Email: "inflight@example.com"})
	require.NoError(t, err)

	const orders = 6
	ids := make([]uuid.UUID, orders)
	for i := range orders {
		ids[i] = shippedOrder(t, svc, supplier.ID).ID
	}

	var wg sync.WaitGroup
	receiptErrs := make([]error, orders)
	ratingErrs := make([]error, orders)
	for i := range orders {
		wg.Go(func() {
			_, receiptErrs[i] = svc.orders.Receive(ctx, ids[i], nil)
		})
		wg.Go(func() {
			_, ratingErrs[i] = svc.ratings.Create(ctx, supplier.ID, procurement.CreateRatingRequest{PurchaseOrderID: ids[i], Rating: 4})
		})
	}
	wg.Wait()

	rated := 0
	for i := range orders {
		require.NoError(t, receiptErrs[i])
		switch {
		case ratingErrs[i] == nil:
			rated++
		case shared.KindOf(ratingErrs[i]) == shared.KindInvalidTransition:
			// the rating won the order lock before the receipt
		default:
			t.Errorf("rating of order %d: %v", i, ratingErrs[i])
		}
	}

	perf, err := svc.suppliers.Performance(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, orders, perf.TotalOrders)
	stats, err := svc.ratings.Stats(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(rated), stats.TotalRatings)
}

func TestPostgres_ConstraintsAreTranslated(t *testing.T) {
	db := startPostgres(t)
	svc := newServices(db)
	ctx := t.Context()

	supplier, err := svc.suppliers.Create(ctx, procurement.CreateSupplierRequest{Name: "Acme", Email: "unique@example.com"})
	require.NoError(t, err)

	_, err = svc.suppliers.Create(ctx, procurement.CreateSupplierRequest{Name: "Copy", Email: "Unique@Example.com"})
	assert.Equal(t, shared.CodeConflict, codeOf(err))

	_, err = svc.orders.Create(ctx, procurement.CreatePurchaseOrderRequest{SupplierID: supplier.ID})
	require.NoError(t, err)
	err = svc.suppliers.Delete(ctx, supplier.ID)
	assert.Equal(t, shared.CodeConflict, codeOf(err))

	entries, err := svc.suppliers.AuditTrail(ctx, supplier.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "supplier.created", entries[0].Action)
	assert.Equal(t, "po.created", entries[1].Action)
}
