package metrics

import "context"

// Collector is the interface for metrics collection.
// Implementations are the Prometheus-backed MetricsCollector and the
// NoopCollector used when metrics are disabled in the config.
type Collector interface {
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)
	RecordStage(ctx context.Context, operation string, stage string, durationMs int64)
	RecordError(ctx context.Context, operation string, errorType string)
	SetStorageCount(ctx context.Context, storageType string, count int64)
}
