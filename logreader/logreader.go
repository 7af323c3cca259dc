package logreader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/dhcgn/maillog/model"
	"github.com/dhcgn/maillog/stats"
)

// StdinPath is the input name that selects standard input.
const StdinPath = "-"

// MaxLineSize bounds a single syslog line. Longer lines fail the read.
const MaxLineSize = 1 << 20

var (
	ErrNoInputs    = errors.New("no input files")
	errLineTooLong = errors.New("line exceeds maximum size")
	gzipMagic      = []byte{0x1f, 0x8b}
)

type Options struct {
	Paths []string
	// Stdin replaces os.Stdin for the "-" input.
	Stdin io.Reader
}

type Reader interface {
	Stream(ctx context.Context, out chan<- model.Line) error
}

func NewReader(opts Options, logger *slog.Logger) (Reader, error) {
	paths := make([]string, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	return &fileReader{paths: paths, stdin: stdin, logger: logger}, nil
}

type fileReader struct {
	paths  []string
	stdin  io.Reader
	logger *slog.Logger
}

func (f *fileReader) Stream(ctx context.Context, out chan<- model.Line) error {
	for _, path := range f.paths {
		if f.logger != nil {
			f.logger.Debug("reading maillog", "path", path)
		}
		err := f.readPath(path, func(line model.Line) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- line:
				return nil
			}
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if f.logger != nil {
				f.logger.Error("maillog stream error", "path", path, "err", err)
			}
			return err
		}
	}
	return nil
}

func (f *fileReader) readPath(path string, fn func(model.Line) error) error {
	rc, err := open(path, f.stdin)
	if err != nil {
		return err
	}
	defer rc.Close()
	return scan(path, rc, fn)
}

// Open returns a reader over the decompressed content of path. Gzip input is
// detected by its magic bytes, so rotated logs need no special naming.
func Open(path string) (io.ReadCloser, error) {
	return open(path, os.Stdin)
}

func open(path string, stdin io.Reader) (io.ReadCloser, error) {
	var src io.ReadCloser
	if path == StdinPath {
		src = io.NopCloser(stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open maillog: %w", err)
		}
		src = file
	}

	br := bufio.NewReaderSize(src, 64*1024)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		src.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.Equal(magic, gzipMagic) {
		return readCloser{Reader: br, closer: src}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return readCloser{Reader: zr, closer: multiCloser{zr, src}}, nil
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (r readCloser) Close() error { return r.closer.Close() }

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var firstErr error
	for _, c := range m {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// scan splits r into lines. Invalid UTF-8 is replaced rather than rejected.
func scan(source string, r io.Reader, fn func(model.Line) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		text := strings.ToValidUTF8(scanner.Text(), "�")
		if err := fn(model.Line{Source: source, Number: n, Text: text}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			err = errLineTooLong
		}
		return fmt.Errorf("%s line %d: %w", source, n+1, err)
	}
	return nil
}

type Producer struct {
	reader Reader
	sink   LineSink
}

// LineSink is the part of the pipeline a Producer feeds.
type LineSink interface {
	AddStage(name string, fn func(context.Context) error)
	LinesWriter() chan<- model.Line
	CloseLines()
	EmitEvent(evt stats.Event)
}

func NewProducer(opts Options, sink LineSink, logger *slog.Logger) (*Producer, error) {
	reader, err := NewReader(opts, logger)
	if err != nil {
		return nil, err
	}
	producer := &Producer{reader: reader, sink: sink}
	sink.AddStage("read", producer.run)
	return producer, nil
}

func (p *Producer) run(ctx context.Context) error {
	defer p.sink.CloseLines()
	err := p.reader.Stream(ctx, p.sink.LinesWriter())
	if err != nil && !errors.Is(err, context.Canceled) {
		p.sink.EmitEvent(stats.Event{Stage: stats.StageRead, Type: stats.EventTypeError, Err: err})
	}
	return err
}

// Read opens each path in turn and calls callback for every line.
func Read(paths []string, callback func(line model.Line) error) error {
	if len(paths) == 0 {
		return ErrNoInputs
	}
	for _, path := range paths {
		rc, err := Open(path)
		if err != nil {
			return err
		}
		err = scan(path, rc, callback)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// CountLines counts the lines of all paths, decompressing as needed.
func CountLines(paths []string) (int, error) {
	count := 0
	for _, path := range paths {
		if path == StdinPath {
			return 0, fmt.Errorf("cannot count lines of standard input")
		}
		rc, err := Open(path)
		if err != nil {
			return 0, err
		}
		n, err := countNewlines(rc)
		rc.Close()
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", path, err)
		}
		count += n
	}
	return count, nil
}

func countNewlines(r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	count := 0
	last := byte('\n')
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			if last != '\n' {
				count++
			}
			return count, nil
		}
		if err != nil {
			return count, err
		}
	}
}
