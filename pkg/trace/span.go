package trace

import "time"

// Stage names used by the chain builder.
const (
	StageResolveHead    = "resolve-head"
	StageCheckLock      = "check-lock"
	StageCreateSegments = "create-segments"
	StageLinkVersion    = "link-version"
	StageCommit         = "commit"
)

// Span is one timed stage within an operation.
type Span struct {
	Name       string           `json:"name"`
	DurationMs int64            `json:"durationMs"`
	OK         bool             `json:"ok"`
	Error      string           `json:"error,omitempty"`
	Counters   map[string]int64 `json:"counters,omitempty"`
}

// OperationTrace accumulates spans for one operation. A nil trace ignores
// every call, so callers never need to check.
type OperationTrace struct {
	Spans           []Span `json:"spans"`
	TotalDurationMs int64  `json:"totalDurationMs"`
}

// New returns an empty trace.
func New() *OperationTrace {
	return &OperationTrace{Spans: make([]Span, 0)}
}

func (t *OperationTrace) add(span Span) {
	t.Spans = append(t.Spans, span)
	t.TotalDurationMs += span.DurationMs
}

// Timer measures one span.
type Timer struct {
	name  string
	start time.Time
	trace *OperationTrace
}

// Start begins timing the named stage.
func (t *OperationTrace) Start(name string) *Timer {
	return &Timer{name: name, start: time.Now(), trace: t}
}

// StartAt begins timing the named stage from an earlier instant.
func (t *OperationTrace) StartAt(name string, start time.Time) *Timer {
	return &Timer{name: name, start: start, trace: t}
}

// Finish records the span. err marks it failed.
func (st *Timer) Finish(err error, counters map[string]int64) {
	if st == nil || st.trace == nil {
		return
	}
	span := Span{
		Name:       st.name,
		DurationMs: time.Since(st.start).Milliseconds(),
		OK:         err == nil,
		Counters:   counters,
	}
	if err != nil {
		span.Error = err.Error()
	}
	st.trace.add(span)
}
