package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Common metric attribute keys for identity service calls
const (
	AttrOperation      = "rolegate.operation" // login, current_identity, list_roster, replace_roles
	AttrHTTPStatusCode = "http.status_code"
	AttrOutcome        = "rolegate.outcome" // ok, denied, error, network
)

// ClientMetrics holds metric instruments for calls made to the identity service.
// The instruments come from the global meter provider, so they are no-ops until the
// embedding application installs one.
type ClientMetrics struct {
	RequestCounter  metric.Int64Counter     // Total identity service requests
	RequestDuration metric.Float64Histogram // Request latency
	FailureCounter  metric.Int64Counter     // Requests that did not return 2xx
}

// NewClientMetrics creates the instruments used by sdk.Client.
func NewClientMetrics() (*ClientMetrics, error) {
	meter := otel.Meter("rolegate/sdk")

	requestCounter, err := meter.Int64Counter(
		"rolegate.client.request.count",
		metric.WithDescription("Total number of identity service requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
	requestDuration, err := meter.Float64Histogram(
		"rolegate.client.request.duration",
		metric.WithDescription("Identity service request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	failureCounter, err := meter.Int64Counter(
		"rolegate.client.failure.count",
		metric.WithDescription("Total number of failed identity service requests"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &ClientMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		FailureCounter:  failureCounter,
	}, nil
}

// RecordRequest records one identity service call. status is 0 when no response arrived.
func (m *ClientMetrics) RecordRequest(ctx context.Context, operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := Outcome(status)
	attrs := metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrHTTPStatusCode, strconv.Itoa(status)),
		attribute.String(AttrOutcome, outcome),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if outcome != "ok" {
		m.FailureCounter.Add(ctx, 1, attrs)
	}
}

// Outcome classifies an HTTP status for the outcome attribute.
func Outcome(status int) string {
	switch {
	case status == 0:
		return "network"
	case status >= 200 && status < 300:
		return "ok"
	case status == 403:
		return "denied"
	default:
		return "error"
	}
}
