package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrExporterClosed is returned by Export after Close.
var ErrExporterClosed = errors.New("exporter closed")

// FileExporter appends records to a JSON Lines file and rotates it once it
// grows past a size limit.
type FileExporter struct {
	path         string
	maxSizeBytes int64
	maxRotated   int

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	closed  bool
}

// FileOption configures a FileExporter.
type FileOption func(*FileExporter)

// WithMaxSize sets the size that triggers rotation (default 10MB).
func WithMaxSize(bytes int64) FileOption {
	return func(fe *FileExporter) { fe.maxSizeBytes = bytes }
}

// WithMaxRotatedFiles sets how many rotated files are kept (default 5).
func WithMaxRotatedFiles(count int) FileOption {
	return func(fe *FileExporter) { fe.maxRotated = count }
}

// NewFileExporter opens path for appending, creating parent directories.
func NewFileExporter(path string, opts ...FileOption) (*FileExporter, error) {
	fe := &FileExporter{
		path:         path,
		maxSizeBytes: 10 * 1024 * 1024,
		maxRotated:   5,
	}
	for _, opt := range opts {
		opt(fe)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if err := fe.open(); err != nil {
		return nil, err
	}
	return fe, nil
}

func (fe *FileExporter) open() error {
	file, err := os.OpenFile(fe.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	fe.file = file
	fe.encoder = json.NewEncoder(file)
	return nil
}

// Export writes record as one line, rotating afterwards if needed.
func (fe *FileExporter) Export(ctx context.Context, record *Record) error {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return ErrExporterClosed
	}
	if err := fe.encoder.Encode(record); err != nil {
		return fmt.Errorf("encode trace record: %w", err)
	}
	if err := fe.rotateIfNeeded(); err != nil {
		return fmt.Errorf("rotate trace file: %w", err)
	}
	return nil
}

// Close syncs and closes the file. Calling it twice is harmless.
func (fe *FileExporter) Close() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return nil
	}
	fe.closed = true

	if err := fe.file.Sync(); err != nil {
		fe.file.Close()
		return fmt.Errorf("sync trace file: %w", err)
	}
	return fe.file.Close()
}

// rotateIfNeeded must be called with mu held.
func (fe *FileExporter) rotateIfNeeded() error {
	info, err := fe.file.Stat()
	if err != nil {
		return fmt.Errorf("stat trace file: %w", err)
	}
	if info.Size() < fe.maxSizeBytes {
		return nil
	}

	if err := fe.file.Close(); err != nil {
		return fmt.Errorf("close trace file for rotation: %w", err)
	}

	// path.N is dropped, path.i moves to path.i+1, path becomes path.1.
	oldest := fmt.Sprintf("%s.%d", fe.path, fe.maxRotated)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove oldest rotated file: %w", err)
	}
	for i := fe.maxRotated - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", fe.path, i)
		to := fmt.Sprintf("%s.%d", fe.path, i+1)
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shift rotated file %s -> %s: %w", from, to, err)
		}
	}
	if err := os.Rename(fe.path, fe.path+".1"); err != nil {
		return fmt.Errorf("rotate current file: %w", err)
	}

	return fe.open()
}
