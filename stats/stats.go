package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dhcgn/maillog/parser"
)

type Stage string

const (
	StageRead   Stage = "read"
	StageDecode Stage = "decode"
	StageExport Stage = "export"
)

type EventType string

const (
	EventTypeDecoded  EventType = "decoded"
	EventTypeIgnored  EventType = "ignored"
	EventTypeExported EventType = "exported"
	EventTypeError    EventType = "error"
)

type Event struct {
	Stage Stage
	Type  EventType
	Line  int
	Kind  parser.Kind
	Err   error
}

// Summary holds the counters of a run. Lines counts every line that reached
// the decoder: decoded, ignored or failed.
type Summary struct {
	Lines     int
	Ignored   int
	Errors    int
	Exported  int
	ByKind    []int
	LastError error
}

// Decoded returns the number of lines decoded into a message.
func (s Summary) Decoded() int {
	total := 0
	for _, n := range s.ByKind {
		total += n
	}
	return total
}

// Count returns the counter for k.
func (s Summary) Count(k parser.Kind) int {
	if int(k) < 0 || int(k) >= len(s.ByKind) {
		return 0
	}
	return s.ByKind[k]
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"lines", s.Lines,
		"decoded", s.Decoded(),
		"ignored", s.Ignored,
		"errors", s.Errors,
	}
	if s.Exported > 0 {
		attrs = append(attrs, "exported", s.Exported)
	}
	for _, k := range parser.Kinds() {
		if n := s.Count(k); n > 0 {
			attrs = append(attrs, k.String(), n)
		}
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Rows renders the counters as name/count pairs, all and ignored first and
// then one row per message kind.
func (s Summary) Rows() [][]string {
	rows := [][]string{
		{"all", humanize.Comma(int64(s.Lines))},
		{"ignored", humanize.Comma(int64(s.Ignored))},
	}
	for _, k := range parser.Kinds() {
		rows = append(rows, []string{k.String(), humanize.Comma(int64(s.Count(k)))})
	}
	if s.Errors > 0 {
		rows = append(rows, []string{"errors", humanize.Comma(int64(s.Errors))})
	}
	return rows
}

type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{summary: Summary{ByKind: make([]int, len(parser.Kinds()))}}
}

// Run applies events until the channel is closed, passing each one to the
// observers as well. After ctx is cancelled it drains whatever is still
// buffered and returns.
func (c *Collector) Run(ctx context.Context, events <-chan Event, observers ...func(Event)) {
	apply := func(evt Event) {
		c.Apply(evt)
		for _, fn := range observers {
			fn(evt)
		}
	}
	for {
		select {
		case <-ctx.Done():
			drain(events, apply)
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			apply(evt)
		}
	}
}

func drain(events <-chan Event, apply func(Event)) {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			apply(evt)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	summary := c.summary
	summary.ByKind = append([]int(nil), c.summary.ByKind...)
	c.mu.Unlock()
	return summary
}

func (c *Collector) Apply(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeDecoded:
		c.summary.Lines++
		if int(evt.Kind) >= 0 && int(evt.Kind) < len(c.summary.ByKind) {
			c.summary.ByKind[evt.Kind]++
		}
	case EventTypeIgnored:
		c.summary.Lines++
		c.summary.Ignored++
	case EventTypeExported:
		c.summary.Exported++
	case EventTypeError:
		if evt.Stage == StageDecode {
			c.summary.Lines++
		}
		c.summary.Errors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

type EventStream interface {
	SubscribeStats(name string, fn func(context.Context, <-chan Event) error)
}

type Reporter struct {
	collector *Collector
	logger    *slog.Logger
	started   time.Time
}

func NewReporter(stream EventStream, logger *slog.Logger) *Reporter {
	reporter := &Reporter{
		collector: NewCollector(),
		logger:    logger,
		started:   time.Now(),
	}
	stream.SubscribeStats("stats-reporter", reporter.consume)
	return reporter
}

func (r *Reporter) consume(ctx context.Context, events <-chan Event) error {
	r.collector.Run(ctx, events)
	summary := r.collector.Snapshot()
	attrs := append(summary.LogAttrs(), "duration", time.Since(r.started))
	if r.logger != nil {
		if ctx.Err() != nil {
			r.logger.Info("stats summary (stopped early)", attrs...)
		} else {
			r.logger.Info("stats summary", attrs...)
		}
	}
	return nil
}

func (r *Reporter) Summary() Summary {
	return r.collector.Snapshot()
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(w io.Writer, m map[string]int, limit int) {
	for i, p := range Top(m, limit) {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, p.Key, humanize.Comma(int64(p.Value)))
	}
}

// Pair is a counted value.
type Pair struct {
	Key   string
	Value int
}

// Top returns up to limit entries of m ordered by descending count, ties
// broken by key.
func Top(m map[string]int, limit int) []Pair {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	if limit >= 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
