package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileExporter_BasicExport(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}
	defer exporter.Close()

	record := &Record{
		Timestamp:   time.Date(2026, 1, 14, 10, 30, 0, 0, time.UTC),
		OperationID: "test-op-1",
		Operation:   "post_version",
		DurationMs:  12,
		Status:      "success",
		Spans: []Span{
			{Name: StageResolveHead, DurationMs: 1, OK: true, Counters: map[string]int64{"hops": 2}},
			{Name: StageCreateSegments, DurationMs: 8, OK: true},
		},
		IDs: map[string]any{"root": "abc"},
	}

	if err := exporter.Export(context.Background(), record); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("Read trace file failed: %v", err)
	}

	var readRecord Record
	if err := json.Unmarshal(data, &readRecord); err != nil {
		t.Fatalf("Unmarshal trace record failed: %v", err)
	}

	if readRecord.OperationID != "test-op-1" {
		t.Errorf("Expected operationId 'test-op-1', got '%s'", readRecord.OperationID)
	}
	if readRecord.Operation != "post_version" {
		t.Errorf("Expected operation 'post_version', got '%s'", readRecord.Operation)
	}
	if len(readRecord.Spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(readRecord.Spans))
	}
	if readRecord.Spans[0].Counters["hops"] != 2 {
		t.Errorf("Expected hops counter 2, got %d", readRecord.Spans[0].Counters["hops"])
	}
}

func TestNoopExporter(t *testing.T) {
	var exporter Exporter = NewNoopExporter()

	record := &Record{
		Timestamp:   time.Now(),
		OperationID: "noop-op",
		Operation:   "post_note",
		Status:      "success",
	}

	if err := exporter.Export(context.Background(), record); err != nil {
		t.Fatalf("Export on noop exporter should succeed, got: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close on noop exporter should succeed, got: %v", err)
	}
}

func TestFileExporter_MultipleRecords(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}

	for _, op := range []string{"post_note", "associate", "post_version"} {
		record := &Record{Timestamp: time.Now(), OperationID: op + "-id", Operation: op, Status: "success"}
		if err := exporter.Export(context.Background(), record); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	file, err := os.Open(tracePath)
	if err != nil {
		t.Fatalf("Open trace file failed: %v", err)
	}
	defer file.Close()

	var ops []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("Line is not valid JSON: %v", err)
		}
		ops = append(ops, r.Operation)
	}

	if strings.Join(ops, ",") != "post_note,associate,post_version" {
		t.Errorf("Unexpected record order: %v", ops)
	}
}

func TestFileExporter_Rotation(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "traces.jsonl")

	exporter, err := NewFileExporter(tracePath, WithMaxSize(1024), WithMaxRotatedFiles(3))
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}
	defer exporter.Close()

	for i := 0; i < 20; i++ {
		record := &Record{
			Timestamp:   time.Now(),
			OperationID: "op-" + strings.Repeat("x", 50),
			Operation:   "post_note",
			DurationMs:  3,
			Status:      "success",
			Spans: []Span{
				{Name: StageCreateSegments, DurationMs: 2, OK: true, Counters: map[string]int64{"segments": 1}},
				{Name: StageCommit, DurationMs: 1, OK: true},
			},
		}
		if err := exporter.Export(context.Background(), record); err != nil {
			t.Fatalf("Export %d failed: %v", i, err)
		}
	}

	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	fileCount := 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "traces.jsonl") {
			fileCount++
		}
	}

	if fileCount < 2 {
		t.Errorf("Expected at least 2 trace files, got %d", fileCount)
	}
	if fileCount > 4 {
		t.Errorf("Expected at most 4 trace files (current + 3 rotated), got %d", fileCount)
	}
}

func TestFileExporter_ExportAfterClose(t *testing.T) {
	dir := t.TempDir()
	exporter, err := NewFileExporter(filepath.Join(dir, "traces.jsonl"))
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err = exporter.Export(context.Background(), &Record{Operation: "post_note"})
	if !errors.Is(err, ErrExporterClosed) {
		t.Errorf("Expected ErrExporterClosed, got %v", err)
	}
}

func TestFileExporter_CloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}

	if err := exporter.Close(); err != nil {
		t.Errorf("First Close failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestFileExporter_DirectoryCreation(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "nested", "subdir", "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}
	defer exporter.Close()

	if _, err := os.Stat(filepath.Dir(tracePath)); os.IsNotExist(err) {
		t.Error("Expected nested directory to be created")
	}
}
