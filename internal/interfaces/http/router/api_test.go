package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/infrastructure/auth"
	"github.com/erp/supplier-service/internal/infrastructure/config"
	"github.com/erp/supplier-service/internal/infrastructure/persistence"
	"github.com/erp/supplier-service/internal/infrastructure/persistence/persistencetest"
	"github.com/erp/supplier-service/internal/interfaces/http/handler"
	"github.com/erp/supplier-service/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu       sync.Mutex
	requests []procurement.AdjustmentRequest
}

func (n *recordingNotifier) Adjust(_ context.Context, req procurement.AdjustmentRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, req)
	return nil
}

type apiHarness struct {
	engine   http.Handler
	jwt      *auth.JWTService
	notifier *recordingNotifier
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	db, err := persistence.Open(persistencetest.Dialector())
	require.NoError(t, err)
	persistencetest.Prepare(t, db.DB)

	scope := persistence.NewGormTransactionScope(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	notifier := &recordingNotifier{}

	suppliers := procurement.NewSupplierService(scope, supplierRepo, persistence.NewGormAuditRepository(db.DB))
	orders := procurement.NewPurchaseOrderService(scope, orderRepo, supplierRepo, notifier)
	ratings := procurement.NewRatingService(scope, persistence.NewGormRatingRepository(db.DB), supplierRepo)

	jwtService := auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret-0123456789abcdef"})
	engine, err := NewEngine(Config{
		Logger:      zap.NewNop(),
		Verifier:    jwtService,
		CORS:        middleware.DefaultCORSConfig(),
		MaxBodySize: 1 << 20,
	}, Handlers{
		System:         handler.NewSystemHandler("supplier-service", "test", db),
		Suppliers:      handler.NewSupplierHandler(suppliers),
		PurchaseOrders: handler.NewPurchaseOrderHandler(orders, suppliers),
		Ratings:        handler.NewRatingHandler(ratings),
	})
	require.NoError(t, err)

	return &apiHarness{engine: engine, jwt: jwtService, notifier: notifier}
}

func (h *apiHarness) token(t *testing.T, email string, roles ...string) string {
	t.Helper()
	token, err := h.jwt.Issue(auth.Identity{Subject: "sub-" + email, Email: email, Roles: roles}, time.Minute)
	require.NoError(t, err)
	return token
}

type call struct {
	method  string
	path    string
	token   string
	body    any
	ifMatch string
}

func (h *apiHarness) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.ifMatch != "" {
		req.Header.Set("If-Match", c.ifMatch)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := decodeBody(t, w)["data"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return data
}

func (h *apiHarness) createSupplier(t *testing.T, admin, email string) string {
	t.Helper()
	w := h.do(t, call{method: "POST", path: "/api/v1/suppliers", token: admin, body: map[string]any{
		"name":  "Supplier " + email,
		"email": email,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataOf(t, w)["id"].(string)
}

func TestOperationalEndpoints(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, call{method: "GET", path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])

	w = h.do(t, call{method: "GET", path: "/ready"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, call{method: "GET", path: "/api/v1/nothing-here"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "Route not found", body["message"])
	assert.NotEmpty(t, body["request_id"])
}

func TestAuthentication_EnvelopePerRouteGroup(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, call{method: "GET", path: "/api/v1/suppliers"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.NotContains(t, body, "success")

	w = h.do(t, call{method: "DELETE", path: "/api/v1/suppliers/ratings/00000000-0000-0000-0000-000000000001"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "UNAUTHORIZED", body["error"])
}

func TestRoles(t *testing.T) {
	h := newAPIHarness(t)
	warehouse := h.token(t, "store@example.com", auth.RoleWarehouse)
	supplier := h.token(t, "vendor@example.com", auth.RoleSupplier)

	w := h.do(t, call{method: "POST", path: "/api/v1/suppliers", token: warehouse, body: map[string]any{"name": "x", "email": "x@example.com"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeBody(t, w)["code"])

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers", token: warehouse})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers", token: supplier})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers/me", token: supplier})
	assert.Equal(t, http.StatusNotFound, w.Code, "supplier user without a profile")
}

func TestSupplierEndpoints_VersionedUpdates(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.token(t, "admin@example.com", auth.RoleAdmin)

	w := h.do(t, call{method: "POST", path: "/api/v1/suppliers", token: admin, body: map[string]any{"name": "Acme", "email": "acme@example.com"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))
	id := dataOf(t, w)["id"].(string)

	w = h.do(t, call{method: "POST", path: "/api/v1/suppliers", token: admin, body: map[string]any{"name": "Dup", "email": "ACME@example.com"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeBody(t, w)["code"])

	w = h.do(t, call{method: "PATCH", path: "/api/v1/suppliers/" + id, token: admin, ifMatch: `"1"`, body: map[string]any{"phone": "+94 11 555"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `"2"`, w.Header().Get("ETag"))
	assert.Equal(t, "+94 11 555", dataOf(t, w)["phone"])

	w = h.do(t, call{method: "PATCH", path: "/api/v1/suppliers/" + id, token: admin, ifMatch: `"1"`, body: map[string]any{"phone": "stale"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VERSION_CONFLICT", decodeBody(t, w)["code"])

	w = h.do(t, call{method: "PATCH", path: "/api/v1/suppliers/" + id, token: admin, ifMatch: "abc", body: map[string]any{"phone": "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers?page=1&size=10", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Len(t, data["items"], 1)
	assert.Equal(t, float64(1), data["pagination"].(map[string]any)["total"])

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers/" + id + "/audit", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf(t, w)["items"], 2)

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers/not-a-uuid", token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])

	w = h.do(t, call{method: "DELETE", path: "/api/v1/suppliers/" + id, token: admin})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSupplierEndpoints_ValidationDetails(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.token(t, "admin@example.com", auth.RoleProcurement)

	w := h.do(t, call{method: "POST", path: "/api/v1/suppliers", token: admin, body: map[string]any{"name": "Acme", "email": "not-an-email"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details := body["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "email", details[0].(map[string]any)["field"])
}

func TestPurchaseOrderFlow_SupplierWarehouseAndRating(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.token(t, "admin@example.com", auth.RoleAdmin)
	warehouse := h.token(t, "store@example.com", auth.RoleWarehouse)
	vendor := h.token(t, "vendor@example.com", auth.RoleSupplier)
	rival := h.token(t, "rival@example.com", auth.RoleSupplier)

	supplierID := h.createSupplier(t, admin, "vendor@example.com")
	h.createSupplier(t, admin, "rival@example.com")

	w := h.do(t, call{method: "POST", path: "/api/v1/purchase-orders", token: admin, body: map[string]any{
		"supplier_id": supplierID,
		"status":      "pending",
		"items": []map[string]any{
			{"product_id": 7, "sku": "SKU-7", "quantity": 4, "unit_price": "2.50"},
			{"product_id": 9, "sku": "SKU-9", "quantity": 1, "unit_price": "10"},
		},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	po := dataOf(t, w)
	poID := po["id"].(string)
	assert.Equal(t, "20", po["total_amount"])

	w = h.do(t, call{method: "GET", path: "/api/v1/purchase-orders/" + poID, token: rival})
	assert.Equal(t, http.StatusNotFound, w.Code, "foreign orders are hidden from supplier users")

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/respond", token: rival, body: map[string]any{"response": "approved", "approved_quantity": 5}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, call{method: "GET", path: "/api/v1/purchase-orders/supplier/" + supplierID + "/pending", token: vendor})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/respond", token: vendor, ifMatch: `"1"`, body: map[string]any{"response": "approved", "approved_quantity": 5}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", dataOf(t, w)["status"])
	assert.Equal(t, `"2"`, w.Header().Get("ETag"))

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/respond", token: vendor, body: map[string]any{"response": "rejected", "rejection_reason": "late"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeBody(t, w)["code"])

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/ship", token: vendor, body: map[string]any{"status": "shipped", "tracking_number": "TRK-1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/receive", token: vendor})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/receive", token: warehouse, ifMatch: `"2"`})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VERSION_CONFLICT", decodeBody(t, w)["code"])

	w = h.do(t, call{method: "PATCH", path: "/api/v1/purchase-orders/" + poID + "/receive", token: warehouse, ifMatch: `"3"`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	received := dataOf(t, w)
	assert.Equal(t, "received", received["order"].(map[string]any)["status"])
	assert.Equal(t, true, received["inventory_updates"].(map[string]any)["successful"])
	assert.Len(t, h.notifier.requests, 2)

	w = h.do(t, call{method: "POST", path: "/api/v1/suppliers/" + supplierID + "/ratings", token: warehouse, body: map[string]any{
		"purchase_order_id": poID,
		"rating":            4,
		"delivery_rating":   5,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Supplier rating submitted successfully", body["message"])

	w = h.do(t, call{method: "POST", path: "/api/v1/suppliers/" + supplierID + "/ratings", token: warehouse, body: map[string]any{
		"purchase_order_id": poID,
		"rating":            2,
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ALREADY_RATED", body["error"])

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers/" + supplierID + "/ratings?limit=5", token: warehouse})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])

	w = h.do(t, call{method: "GET", path: "/api/v1/suppliers/" + supplierID + "/performance", token: warehouse})
	require.Equal(t, http.StatusOK, w.Code)
	perf := dataOf(t, w)
	assert.Equal(t, float64(1), perf["total_orders"])
	assert.Equal(t, float64(1), perf["total_ratings"])

	w = h.do(t, call{method: "DELETE", path: "/api/v1/purchase-orders/" + poID, token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeBody(t, w)["code"])
}

func TestPurchaseOrderList_SupplierUsersSeeOwnOrdersOnly(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.token(t, "admin@example.com", auth.RoleAdmin)
	vendor := h.token(t, "vendor@example.com", auth.RoleSupplier)

	own := h.createSupplier(t, admin, "vendor@example.com")
	other := h.createSupplier(t, admin, "other@example.com")
	for _, id := range []string{own, other, other} {
		w := h.do(t, call{method: "POST", path: "/api/v1/purchase-orders", token: admin, body: map[string]any{"supplier_id": id}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := h.do(t, call{method: "GET", path: "/api/v1/purchase-orders?supplier_id=" + other, token: vendor})
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, own, items[0].(map[string]any)["supplier_id"])

	w = h.do(t, call{method: "GET", path: "/api/v1/purchase-orders", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf(t, w)["items"], 3)

	w = h.do(t, call{method: "GET", path: "/api/v1/purchase-orders?supplier_id=bad", token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, call{method: "GET", path: "/api/v1/purchase-orders/stats?supplier_id=" + other, token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), dataOf(t, w)["total"])
}
