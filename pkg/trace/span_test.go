package trace

import (
	"errors"
	"testing"
	"time"
)

func TestNewTrace(t *testing.T) {
	tr := New()
	if tr.Spans == nil || len(tr.Spans) != 0 {
		t.Errorf("Expected empty non-nil spans, got %v", tr.Spans)
	}
}

func TestTimerFinishRecordsSpan(t *testing.T) {
	tr := New()

	tr.Start(StageResolveHead).Finish(nil, map[string]int64{"hops": 3})
	tr.Start(StageLinkVersion).Finish(errors.New("conflict"), nil)

	if len(tr.Spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(tr.Spans))
	}
	if !tr.Spans[0].OK || tr.Spans[0].Counters["hops"] != 3 {
		t.Errorf("Unexpected first span: %+v", tr.Spans[0])
	}
	if tr.Spans[1].OK || tr.Spans[1].Error != "conflict" {
		t.Errorf("Unexpected second span: %+v", tr.Spans[1])
	}
}

func TestStartAtMeasuresFromGivenInstant(t *testing.T) {
	tr := New()
	tr.StartAt(StageCommit, time.Now().Add(-50*time.Millisecond)).Finish(nil, nil)

	if tr.Spans[0].DurationMs < 50 {
		t.Errorf("Expected duration >= 50ms, got %d", tr.Spans[0].DurationMs)
	}
	if tr.TotalDurationMs != tr.Spans[0].DurationMs {
		t.Errorf("Total %d does not match span %d", tr.TotalDurationMs, tr.Spans[0].DurationMs)
	}
}

func TestNilTraceIsSafe(t *testing.T) {
	var tr *OperationTrace
	tr.Start(StageCommit).Finish(nil, nil)

	var timer *Timer
	timer.Finish(errors.New("ignored"), nil)
}
