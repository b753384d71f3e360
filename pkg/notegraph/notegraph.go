// Package notegraph provides the note graph: authored notes split into
// segment chains, typed associations between notes, and versioning.
package notegraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dan-solli/notegraph/pkg/chain"
	"github.com/dan-solli/notegraph/pkg/chunker"
	"github.com/dan-solli/notegraph/pkg/metrics"
	"github.com/dan-solli/notegraph/pkg/store"
	"github.com/dan-solli/notegraph/pkg/trace"
)

// NoteGraph is the main entry point for the note graph
type NoteGraph struct {
	config   Config
	store    *store.SQLiteStore
	chunker  *chunker.Chunker
	builder  *chain.Builder
	related  *chain.Aggregator
	metrics  metrics.Collector
	exporter trace.Exporter
	logger   *slog.Logger
}

// Stats reports storage counts.
type Stats struct {
	Notes        int64 `json:"notes"`
	Associations int64 `json:"associations"`
	Follows      int64 `json:"follows"`
}

// New opens the database named by cfg and wires every component.
func New(cfg Config) (*NoteGraph, error) {
	cfg = cfg.withDefaults()

	db, err := store.OpenWithDriver(cfg.Driver, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var exporter trace.Exporter = trace.NewNoopExporter()
	if cfg.TracePath != "" {
		fe, err := trace.NewFileExporter(cfg.TracePath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open trace exporter: %w", err)
		}
		exporter = fe
	}

	var collector metrics.Collector = metrics.NewNoopCollector()
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	return &NoteGraph{
		config:   cfg,
		store:    db,
		chunker:  &chunker.Chunker{MaxBytes: cfg.MaxSegmentBytes},
		builder:  chain.NewBuilder(db),
		related:  chain.NewAggregator(db.Notes(), db.Associations()),
		metrics:  collector,
		exporter: exporter,
	}, nil
}

// WithLogger sets the logger and logs the effective configuration.
// It returns the same instance for chaining. A nil logger disables logging.
func (g *NoteGraph) WithLogger(logger *slog.Logger) *NoteGraph {
	g.logger = logger
	if logger != nil {
		logger.Info("notegraph configured",
			"db_path", g.config.DBPath,
			"driver", g.config.Driver,
			"max_segment_bytes", g.config.MaxSegmentBytes,
			"metrics_enabled", g.config.MetricsEnabled,
			"trace_enabled", g.config.TracePath != "",
		)
	}
	return g
}

// Config returns the effective configuration.
func (g *NoteGraph) Config() Config {
	return g.config
}

// Store returns the underlying store.
func (g *NoteGraph) Store() *store.SQLiteStore {
	return g.store
}

// MetricsRegistry returns the Prometheus registry, or nil when metrics are
// disabled.
func (g *NoteGraph) MetricsRegistry() *prometheus.Registry {
	if mc, ok := g.metrics.(*metrics.MetricsCollector); ok {
		return mc.Registry()
	}
	return nil
}

// Stats returns the current note, association and follow counts and
// publishes them as storage gauges.
func (g *NoteGraph) Stats(ctx context.Context) (*Stats, error) {
	notes, err := g.store.NoteCount(ctx)
	if err != nil {
		return nil, err
	}
	assocs, err := g.store.AssociationCount(ctx)
	if err != nil {
		return nil, err
	}
	follows, err := g.store.FollowCount(ctx)
	if err != nil {
		return nil, err
	}
	g.metrics.SetStorageCount(ctx, "notes", notes)
	g.metrics.SetStorageCount(ctx, "associations", assocs)
	g.metrics.SetStorageCount(ctx, "follows", follows)
	return &Stats{Notes: notes, Associations: assocs, Follows: follows}, nil
}

// Close releases the database and flushes the trace exporter.
func (g *NoteGraph) Close() error {
	exportErr := g.exporter.Close()
	if err := g.store.Close(); err != nil {
		return err
	}
	return exportErr
}

func (g *NoteGraph) log() *slog.Logger {
	if g.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g.logger
}

// observation collects what finish needs to report one operation.
type observation struct {
	op    string
	start time.Time
	write bool
	trace *trace.OperationTrace
	ids   map[string]any
}

func (g *NoteGraph) observe(op string, write bool) *observation {
	return &observation{op: op, start: time.Now(), write: write}
}

// finish records metrics, logs the outcome and, for writes, exports a trace
// record. Logged attributes are ids and counts only, never note content.
func (g *NoteGraph) finish(ctx context.Context, o *observation, err error) {
	durationMs := time.Since(o.start).Milliseconds()
	status := "success"
	errType := ""
	if err != nil {
		status = "error"
		errType = ClassifyError(err)
		g.metrics.RecordError(ctx, o.op, errType)
	}
	g.metrics.RecordOperation(ctx, o.op, status, durationMs)

	var spans []trace.Span
	if o.trace != nil {
		spans = o.trace.Spans
		for _, span := range spans {
			g.metrics.RecordStage(ctx, o.op, span.Name, span.DurationMs)
			g.log().Debug(o.op+" stage",
				"stage", span.Name,
				"duration_ms", span.DurationMs,
				"ok", span.OK,
			)
		}
	}

	attrs := []any{"operation", o.op, "duration_ms", durationMs}
	for k, v := range o.ids {
		attrs = append(attrs, k, v)
	}
	switch {
	case err != nil:
		g.log().Warn(o.op+" failed", append(attrs, "error_type", errType, "error", err)...)
	case o.write:
		g.log().Info(o.op+" complete", attrs...)
	default:
		g.log().Debug(o.op+" complete", attrs...)
	}

	if !o.write {
		return
	}
	if spans == nil {
		spans = []trace.Span{}
	}
	record := &trace.Record{
		Timestamp:   o.start.UTC(),
		OperationID: uuid.NewString(),
		Operation:   o.op,
		DurationMs:  durationMs,
		Status:      status,
		ErrorType:   errType,
		Spans:       spans,
		IDs:         o.ids,
	}
	if exportErr := g.exporter.Export(ctx, record); exportErr != nil {
		g.log().Warn("trace export failed", "operation", o.op, "error", exportErr)
	}
	if err == nil && g.config.MetricsEnabled {
		if _, statsErr := g.Stats(ctx); statsErr != nil {
			g.log().Warn("storage count refresh failed", "error", statsErr)
		}
	}
}
