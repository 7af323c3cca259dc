package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/dhcgn/maillog/logreader"
	"github.com/dhcgn/maillog/model"
	"github.com/dhcgn/maillog/stats"
)

var ErrNoPath = errors.New("export path is empty")

// Writer appends records as JSON lines. Paths ending in .gz are compressed.
type Writer struct {
	path    string
	file    *os.File
	gz      *gzip.Writer
	writer  *bufio.Writer
	written int
	mu      sync.Mutex
}

func NewWriter(path string) (*Writer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}

	w := &Writer{path: path, file: file}
	var dst io.Writer = file
	if strings.HasSuffix(path, ".gz") {
		w.gz = gzip.NewWriter(file)
		dst = w.gz
	}
	w.writer = bufio.NewWriterSize(dst, 64*1024)
	return w, nil
}

func (w *Writer) Path() string {
	return w.path
}

// Written returns the number of records written so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *Writer) Write(record model.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	w.written++
	return nil
}

// Flush writes any buffered data to the underlying file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			return fmt.Errorf("flush gzip stream: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the export file. It returns the first error.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	var firstErr error
	if err := w.writer.Flush(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("flush export file: %w", err)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close gzip stream: %w", err)
		}
	}
	if err := w.file.Sync(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("sync export file: %w", err)
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close export file: %w", err)
	}
	w.file = nil

	return firstErr
}

// Load reads an export file back and calls fn for every record. Compressed
// files are detected by content.
func Load(path string, fn func(model.Record) error) error {
	rc, err := logreader.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), logreader.MaxLineSize)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var record model.Record
		if err := json.Unmarshal(text, &record); err != nil {
			return fmt.Errorf("parse export line %d: %w", line, err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read export file: %w", err)
	}
	return nil
}

// Source is the part of the pipeline an Exporter drains.
type Source interface {
	AttachExporter(name string, fn func(context.Context) error)
	Records() <-chan model.Envelope
	EmitEvent(evt stats.Event)
}

type Exporter struct {
	writer *Writer
	source Source
	logger *slog.Logger
}

// NewExporter opens path and registers the export stage on source.
func NewExporter(path string, source Source, logger *slog.Logger) (*Exporter, error) {
	writer, err := NewWriter(path)
	if err != nil {
		return nil, err
	}
	exporter := &Exporter{writer: writer, source: source, logger: logger}
	source.AttachExporter("export", exporter.run)
	return exporter, nil
}

func (e *Exporter) run(ctx context.Context) (err error) {
	defer func() {
		if cerr := e.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if e.logger != nil {
			e.logger.Info("export closed", "path", e.writer.Path(), "records", e.writer.Written())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-e.source.Records():
			if !ok {
				return nil
			}
			if err := e.writer.Write(env.Record()); err != nil {
				e.source.EmitEvent(stats.Event{Stage: stats.StageExport, Type: stats.EventTypeError, Line: env.Line.Number, Err: err})
				return err
			}
			e.source.EmitEvent(stats.Event{Stage: stats.StageExport, Type: stats.EventTypeExported, Line: env.Line.Number})
		}
	}
}
