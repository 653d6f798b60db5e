package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Histogram boundaries sized for on-device work. Vault operations are
// local crypto plus sqlite, so durations cluster in the low milliseconds;
// payloads run from thumbnail-sized blobs up to full scanned pages.
var (
	durationBoundaries = []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	payloadBoundaries  = []float64{1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20}
)

// BusinessMetrics records what the vault engine is doing: how often each
// store operation runs, how long it takes, and how much decrypted data it
// hands back to callers.
type BusinessMetrics interface {
	// RecordOperation counts one operation outcome.
	// Domain examples: "documents", "keyvault", "migration"
	// Operation examples: "document_create", "page_decrypt", "store_convert"
	// Status is "success" or "error".
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records how long one operation took, in seconds, as a
	// histogram for percentile queries.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordPayloadBytes records the size of a decrypted payload returned to
	// the caller. Feeds the sizing of cache budgets against real usage.
	RecordPayloadBytes(ctx context.Context, operation string, byteCount int)
}

// businessMetrics implements BusinessMetrics on OpenTelemetry instruments.
type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	payloads   metric.Int64Histogram
}

// NewBusinessMetrics creates the engine-side instruments on the given meter
// provider. The namespace prefixes every metric name.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of vault operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of vault operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	payloads, err := meter.Int64Histogram(
		fmt.Sprintf("%s_payload_bytes", namespace),
		metric.WithDescription("Size of decrypted payloads returned to callers"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(payloadBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload histogram: %w", err)
	}

	return &businessMetrics{
		operations: operations,
		durations:  durations,
		payloads:   payloads,
	}, nil
}

// RecordOperation increments the operation counter with domain, operation,
// and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with domain,
// operation, and status labels.
func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordPayloadBytes records a decrypted payload size with an operation
// label.
func (b *businessMetrics) RecordPayloadBytes(ctx context.Context, operation string, byteCount int) {
	b.payloads.Record(ctx, int64(byteCount),
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}
