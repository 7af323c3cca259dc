package progress

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/dhcgn/maillog/stats"
)

// Bar manages a progress bar for tracking decoded lines.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	current int
	errors  int
	mu      sync.Mutex
	enabled bool
}

// New creates a new progress bar over total lines. A zero total disables it.
func New(total int, enabled bool) *Bar {
	bar := &Bar{
		total:   total,
		enabled: enabled && total > 0,
	}

	if bar.enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Decoding maillog").
			Start()

		bar.pb = pb
		pterm.Info.Printf("Total lines: %s\n", humanize.Comma(int64(total)))
		pterm.Println()
	}

	return bar
}

// Update advances the bar for each line that left the decoder.
func (b *Bar) Update(evt stats.Event) {
	if b == nil || !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch evt.Type {
	case stats.EventTypeDecoded, stats.EventTypeIgnored:
		b.current++
		b.pb.Increment()
	case stats.EventTypeError:
		if evt.Stage == stats.StageDecode {
			b.current++
			b.errors++
			b.pb.Increment()
			b.pb.UpdateTitle("Decoding maillog (" + humanize.Comma(int64(b.errors)) + " errors)")
		}
	}
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if b == nil || !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pb.Stop()
	if b.current >= b.total {
		pterm.Success.Println("Decoding complete!")
	} else {
		pterm.Warning.Printf("Stopped after %s of %s lines\n", humanize.Comma(int64(b.current)), humanize.Comma(int64(b.total)))
	}
}

// PrintSummary renders the per-kind counters as a table on w.
func PrintSummary(w io.Writer, summary stats.Summary, duration time.Duration) error {
	data := pterm.TableData{{"Kind", "Lines"}}
	data = append(data, summary.Rows()...)

	pterm.Fprintln(w)
	pterm.Fprintln(w, pterm.DefaultSection.Sprint("Summary Statistics"))
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}
	pterm.Fprintln(w, pterm.Info.Sprintf("Duration: %v", duration.Round(time.Millisecond)))
	if summary.Exported > 0 {
		pterm.Fprintln(w, pterm.Info.Sprintf("Exported: %s", humanize.Comma(int64(summary.Exported))))
	}
	if summary.LastError != nil {
		pterm.Fprintln(w, pterm.Error.Sprintf("Last error: %v", summary.LastError))
	}
	return nil
}

// ProgressReporter drives the optional progress bar and renders the final
// counters with pterm.
type ProgressReporter struct {
	bar       *Bar
	collector *stats.Collector
	out       io.Writer
	started   time.Time
}

// NewProgressReporter creates a new progress reporter. bar may be nil.
func NewProgressReporter(stream stats.EventStream, bar *Bar, out io.Writer) *ProgressReporter {
	reporter := &ProgressReporter{
		bar:       bar,
		collector: stats.NewCollector(),
		out:       out,
		started:   time.Now(),
	}
	stream.SubscribeStats("progress-stats", reporter.collectStats)
	return reporter
}

func (pr *ProgressReporter) Summary() stats.Summary {
	return pr.collector.Snapshot()
}

// collectStats collects statistics and prints the final summary.
func (pr *ProgressReporter) collectStats(ctx context.Context, events <-chan stats.Event) error {
	pr.collector.Run(ctx, events, pr.bar.Update)
	pr.bar.Stop()

	if pr.out == nil {
		return nil
	}
	return PrintSummary(pr.out, pr.collector.Snapshot(), time.Since(pr.started))
}
