// Package trace records per-stage timings of note graph operations and
// exports them as JSON Lines.
package trace

import (
	"context"
	"time"
)

// Exporter writes finished operation records somewhere durable.
// Implementations must be safe for concurrent use.
type Exporter interface {
	// Export writes one record.
	Export(ctx context.Context, record *Record) error

	// Close flushes buffered records and releases resources.
	Close() error
}

// Record is an exported operation. It carries ids and timings only, never
// note content.
type Record struct {
	Timestamp   time.Time      `json:"timestamp"`
	OperationID string         `json:"operationId"`
	Operation   string         `json:"operation"` // post_note, post_version, associate, create_account, follow, unfollow
	DurationMs  int64          `json:"durationMs"`
	Status      string         `json:"status"` // success or error
	ErrorType   string         `json:"errorType,omitempty"`
	Spans       []Span         `json:"spans"`
	IDs         map[string]any `json:"ids,omitempty"`
}
