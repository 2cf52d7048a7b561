package persistence

import (
	"strings"

	"github.com/erp/supplier-service/internal/domain/shared"
)

const defaultSortField = "created_at"

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.ToLower(strings.TrimSpace(sortField))
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderBy renders a whitelisted ORDER BY term. Only whitelisted identifiers
// ever reach the SQL string.
func orderBy(sort shared.Sort, allowed map[string]bool) string {
	return ValidateSortField(sort.Field, allowed, defaultSortField) + " " + ValidateSortOrder(sort.Direction)
}

// SupplierSortFields contains allowed sort fields for suppliers
var SupplierSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"email":          true,
	"country":        true,
	"average_rating": true,
	"total_orders":   true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"created_at":             true,
	"updated_at":             true,
	"po_number":              true,
	"order_date":             true,
	"expected_delivery_date": true,
	"status":                 true,
	"supplier_response":      true,
	"total_amount":           true,
}
