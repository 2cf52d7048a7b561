package telemetry

import "go.opentelemetry.io/otel/attribute"

// Metric attribute keys
var (
	AttrStatus         = attribute.Key("status")
	AttrFromStatus     = attribute.Key("from_status")
	AttrToStatus       = attribute.Key("to_status")
	AttrResponse       = attribute.Key("supplier_response")
	AttrOnTime         = attribute.Key("on_time")
	AttrRatingChange   = attribute.Key("change")
	AttrOutcome        = attribute.Key("outcome")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)

// Histogram boundaries
var (
	// LatencyBuckets are in seconds, for inbound requests and inventory calls
	LatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DeliveryDaysBuckets cover order date to receipt, in days
	DeliveryDaysBuckets = []float64{1, 2, 3, 5, 7, 10, 14, 21, 30, 45, 60, 90}

	// OrderAmountBuckets cover purchase order totals
	OrderAmountBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000}
)
