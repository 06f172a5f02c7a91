// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics provides metrics for the inventory sync pipeline.
// It tracks webhook intake, sync outcomes, and mapping uploads.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	webhookReceivedTotal *Counter
	syncOutcomeTotal     *Counter
	mappingRowsTotal     *Counter
	mappingRowsDropped   *Counter

	// Gauge metrics (point-in-time values)
	mappingTableSize *Gauge

	// Histogram metrics
	syncDuration *Histogram
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	sm.webhookReceivedTotal, err = NewCounter(
		cfg.Meter,
		"skubridge_webhook_received_total",
		"Total number of webhook deliveries received",
		"{deliveries}",
	)
	if err != nil {
		return nil, err
	}

	sm.syncOutcomeTotal, err = NewCounter(
		cfg.Meter,
		"skubridge_sync_outcome_total",
		"Total number of sync attempts by outcome",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	sm.mappingRowsTotal, err = NewCounter(
		cfg.Meter,
		"skubridge_mapping_rows_total",
		"Total number of mapping rows accepted from uploads",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	sm.mappingRowsDropped, err = NewCounter(
		cfg.Meter,
		"skubridge_mapping_rows_dropped_total",
		"Total number of mapping rows dropped during upload parsing",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	sm.mappingTableSize, err = NewGauge(
		cfg.Meter,
		"skubridge_mapping_table_skus",
		"Number of SKUs in the current mapping table",
		"{skus}",
	)
	if err != nil {
		return nil, err
	}

	sm.syncDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "skubridge_sync_duration_seconds",
		Description: "End-to-end duration of webhook sync processing",
		Unit:        "s",
		Boundaries:  OutboundDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordWebhookReceived records an incoming webhook delivery.
// This should be called once per delivery, before any processing.
func (sm *SyncMetrics) RecordWebhookReceived(ctx context.Context, topic string) {
	sm.webhookReceivedTotal.Inc(ctx,
		AttrWebhookTopic.String(topic),
	)
}

// RecordSyncOutcome records the terminal outcome of a sync attempt.
// Status is one of synced/skipped/failed; reason carries the skip or
// failure detail.
func (sm *SyncMetrics) RecordSyncOutcome(ctx context.Context, status, reason string) {
	sm.syncOutcomeTotal.Inc(ctx,
		AttrSyncStatus.String(status),
		AttrSkipReason.String(reason),
	)
}

// RecordSyncDuration records how long a webhook delivery took to process.
func (sm *SyncMetrics) RecordSyncDuration(ctx context.Context, d time.Duration, status string) {
	sm.syncDuration.RecordDuration(ctx, d,
		AttrSyncStatus.String(status),
	)
}

// RecordMappingUpload records the outcome of a mapping table upload.
// Accepted is the number of rows that made it into the table; dropped
// is the number of rows discarded for empty cells.
func (sm *SyncMetrics) RecordMappingUpload(ctx context.Context, accepted, dropped int64) {
	if accepted > 0 {
		sm.mappingRowsTotal.Add(ctx, accepted)
	}
	if dropped > 0 {
		sm.mappingRowsDropped.Add(ctx, dropped)
	}
}

// RecordMappingTableSize records the SKU count of the active mapping table.
func (sm *SyncMetrics) RecordMappingTableSize(ctx context.Context, skuCount int64) {
	sm.mappingTableSize.Record(ctx, skuCount)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
