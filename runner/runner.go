package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhcgn/maillog/config"
	"github.com/dhcgn/maillog/filter"
	"github.com/dhcgn/maillog/model"
	"github.com/dhcgn/maillog/parser"
	"github.com/dhcgn/maillog/stats"
)

var ErrAlreadyStarted = errors.New("pipeline already started")

// StageFunc is a pipeline stage. It runs once per Start and should return
// when its input is exhausted or ctx is cancelled.
type StageFunc = func(context.Context) error

// LineError reports a line the decoder rejected. It unwraps to the
// parser.ParseError.
type LineError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

type stage struct {
	name string
	fn   StageFunc
}

type subscriber struct {
	name   string
	fn     func(context.Context, <-chan stats.Event) error
	events chan stats.Event
}

type Runner struct {
	cfg    config.Config
	logger *slog.Logger
	parser *parser.Parser

	ctx    context.Context
	cancel context.CancelFunc

	lines   chan model.Line
	records chan model.Envelope

	stages      []stage
	subscribers []subscriber
	exporting   bool
	started     bool

	workWG  sync.WaitGroup
	statsWG sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeLinesOnce   sync.Once
	closeRecordsOnce sync.Once
	closeEventsOnce  sync.Once
	since            time.Time
}

func New(cfg config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	noise, err := filter.New(cfg.FilterOptions())
	if err != nil {
		return nil, fmt.Errorf("noise filter: %w", err)
	}

	logger.Debug("noise filter", "prefixes", noise.Prefixes(), "rules", noise.Len())

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		cfg:     cfg,
		logger:  logger,
		parser:  parser.New(noise),
		ctx:     ctx,
		cancel:  cancel,
		lines:   make(chan model.Line, 256),
		records: make(chan model.Envelope, 256),
	}

	r.AddStage("decode", r.decode)
	return r, nil
}

func (r *Runner) LinesWriter() chan<- model.Line {
	return r.lines
}

func (r *Runner) CloseLines() {
	r.closeLinesOnce.Do(func() {
		close(r.lines)
	})
}

// Records returns the decoded envelopes. Only decoded lines are sent and
// only after AttachExporter has been called.
func (r *Runner) Records() <-chan model.Envelope {
	return r.records
}

// AttachExporter registers fn as the consumer of Records.
func (r *Runner) AttachExporter(name string, fn StageFunc) {
	r.exporting = true
	r.AddStage(name, fn)
}

func (r *Runner) EmitEvent(evt stats.Event) {
	for _, sub := range r.subscribers {
		select {
		case <-r.ctx.Done():
			return
		case sub.events <- evt:
		}
	}
}

// SubscribeStats registers fn to receive every event of the run. Each
// subscriber has its own channel.
func (r *Runner) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	r.subscribers = append(r.subscribers, subscriber{
		name:   name,
		fn:     fn,
		events: make(chan stats.Event, 128),
	})
}

// AddStage registers fn. Stages start together when Start is called.
func (r *Runner) AddStage(name string, fn StageFunc) {
	r.stages = append(r.stages, stage{name: name, fn: fn})
}

func (r *Runner) Start() error {
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true
	r.since = time.Now()

	for _, sub := range r.subscribers {
		r.statsWG.Add(1)
		go func(sub subscriber) {
			defer r.statsWG.Done()
			if err := sub.fn(r.ctx, sub.events); err != nil && !errors.Is(err, context.Canceled) {
				r.fail(fmt.Errorf("%s stats: %w", sub.name, err))
			}
		}(sub)
	}

	for _, st := range r.stages {
		r.workWG.Add(1)
		go func(st stage) {
			defer r.workWG.Done()
			if err := st.fn(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.fail(fmt.Errorf("%s stage: %w", st.name, err))
			}
		}(st)
	}

	r.workWG.Wait()
	r.closeEvents()
	r.statsWG.Wait()

	r.cancel()

	err := r.Err()
	duration := time.Since(r.since)
	if err != nil {
		r.logger.Error("pipeline failed", "duration", duration, "err", err)
		return err
	}

	r.logger.Info("pipeline completed", "duration", duration)
	return nil
}

// Err returns the first error recorded by any stage.
func (r *Runner) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

func (r *Runner) decode(ctx context.Context) error {
	defer r.closeRecords()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Workers; i++ {
		g.Go(func() error {
			return r.decodeWorker(ctx)
		})
	}
	return g.Wait()
}

func (r *Runner) decodeWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-r.lines:
			if !ok {
				return nil
			}
			if err := r.decodeLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) decodeLine(ctx context.Context, line model.Line) error {
	msg, err := r.parser.Parse(line.Text)
	switch {
	case err != nil:
		lineErr := &LineError{Source: line.Source, Line: line.Number, Text: line.Text, Err: err}
		r.EmitEvent(stats.Event{Stage: stats.StageDecode, Type: stats.EventTypeError, Line: line.Number, Err: lineErr})
		if !r.cfg.KeepGoing {
			return lineErr
		}
		r.logger.Debug("undecodable line", "source", line.Source, "line", line.Number, "err", err)
		return nil
	case msg == nil:
		r.EmitEvent(stats.Event{Stage: stats.StageDecode, Type: stats.EventTypeIgnored, Line: line.Number})
		return nil
	}

	r.EmitEvent(stats.Event{Stage: stats.StageDecode, Type: stats.EventTypeDecoded, Line: line.Number, Kind: msg.Kind()})
	if !r.exporting {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.records <- model.Envelope{Line: line, Message: msg}:
		return nil
	}
}

func (r *Runner) closeRecords() {
	r.closeRecordsOnce.Do(func() {
		close(r.records)
	})
}

func (r *Runner) closeEvents() {
	r.closeEventsOnce.Do(func() {
		for _, sub := range r.subscribers {
			close(sub.events)
		}
	})
}

func (r *Runner) fail(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
		r.cancel()
	}
	r.errMu.Unlock()
}
