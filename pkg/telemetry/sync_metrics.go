package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values recorded on the "outcome" attribute of sync metrics.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

const syncMeterName = "github.com/ghuser/notekeeper/sync"

// SyncMetrics counts and times record-list controller operations.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	ops      metric.Int64Counter
	duration metric.Float64Histogram
}

// NewSyncMetrics registers the sync instruments on mp. A nil mp falls back to
// the global meter provider installed by Setup.
func NewSyncMetrics(mp metric.MeterProvider) (*SyncMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(syncMeterName)

	ops, err := meter.Int64Counter("notes_sync_operations_total",
		metric.WithDescription("Record list controller operations by name and outcome"))
	if err != nil {
		return nil, fmt.Errorf("sync ops counter: %w", err)
	}
	duration, err := meter.Float64Histogram("notes_sync_operation_duration_seconds",
		metric.WithDescription("Record list controller operation latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("sync duration histogram: %w", err)
	}
	return &SyncMetrics{ops: ops, duration: duration}, nil
}

// Record adds one observation for op. outcome is one of the Outcome* constants.
func (m *SyncMetrics) Record(ctx context.Context, op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	m.ops.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}
