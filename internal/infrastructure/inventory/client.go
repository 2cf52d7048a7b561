// Package inventory talks to the external inventory service.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/config"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	adjustPath        = "/api/inventory/adjust"
	defaultTimeout    = 10 * time.Second
	maxErrorBodyBytes = 1 << 10
	dependencyName    = "inventory service"
)

// Outcomes reported to the metrics recorder
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeDuplicate   = "duplicate"
)

// MetricsRecorder receives one sample per adjustment call
type MetricsRecorder interface {
	RecordInventoryAdjustment(ctx context.Context, outcome string, d time.Duration, statusCode int)
}

// StatusError is returned when the inventory service answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inventory service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("inventory service returned %d: %s", e.StatusCode, e.Body)
}

// Client posts stock adjustments to the inventory service
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	limiter      *rate.Limiter
	metrics      MetricsRecorder
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records every call
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for cfg. Outbound calls are traced through
// otelhttp and throttled when cfg.RateLimit is positive.
func NewClient(cfg config.InventoryConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		serviceToken: cfg.ServiceToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Adjust sends one adjustment. Transport failures and an unconfigured base
// URL are DependencyUnavailable errors; a non-2xx answer is a *StatusError.
func (c *Client) Adjust(ctx context.Context, req procurement.AdjustmentRequest) error {
	if c.baseURL == "" {
		return shared.NewDependencyUnavailableError(dependencyName, errors.New("base url is not configured"))
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return shared.NewDependencyUnavailableError(dependencyName, err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode adjustment: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+adjustPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build adjustment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.serviceToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.record(ctx, OutcomeUnavailable, start, 0)
		return shared.NewDependencyUnavailableError(dependencyName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(ctx, OutcomeRejected, start, resp.StatusCode)
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.record(ctx, OutcomeSuccess, start, resp.StatusCode)
	logger.L(ctx).Info("Inventory adjusted",
		zap.Int64("product_id", req.ProductID),
		zap.String("sku", req.SKU),
		zap.Int("quantity", req.Quantity),
	)
	return nil
}

func (c *Client) record(ctx context.Context, outcome string, start time.Time, status int) {
	if c.metrics != nil {
		c.metrics.RecordInventoryAdjustment(ctx, outcome, time.Since(start), status)
	}
}

var _ procurement.InventoryNotifier = (*Client)(nil)
